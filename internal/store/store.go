package store

import (
	"context"
	"errors"
	"time"

	"github.com/seantiz/edgemgmt/internal/model"
)

var (
	// ErrNotFound is returned when an identity or module does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a record whose name is taken.
	ErrConflict = errors.New("already exists")
)

// Module is the persisted state of one simulated module.
type Module struct {
	ID          string
	Spec        model.ModuleSpec
	Status      model.ModuleStatus
	Description string
	StartTime   *time.Time
	ExitTime    *time.Time
	// ExitCode is nil until the module has exited at least once.
	ExitCode  *int64
	CreatedAt time.Time
}

// Store defines the persistence operations for the management simulator.
type Store interface {
	CreateIdentity(ctx context.Context, id model.Identity) error
	GetIdentity(ctx context.Context, name string) (model.Identity, error)
	UpdateIdentity(ctx context.Context, id model.Identity) error
	DeleteIdentity(ctx context.Context, name string) error
	ListIdentities(ctx context.Context) ([]model.Identity, error)

	CreateModule(ctx context.Context, m *Module) error
	GetModule(ctx context.Context, name string) (*Module, error)
	ListModules(ctx context.Context) ([]*Module, error)
	UpdateModuleSpec(ctx context.Context, spec model.ModuleSpec) error
	UpdateModuleState(ctx context.Context, m *Module) error
	DeleteModule(ctx context.Context, name string) error

	Ping(ctx context.Context) error
	Close() error
}
