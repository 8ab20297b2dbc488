package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/seantiz/edgemgmt/internal/model"
	"github.com/seantiz/edgemgmt/internal/store"
)

// Version is the runtime version reported by SystemInfo.
const Version = "1.0.9-sim"

var (
	// ErrInvalidTransition is returned when a module cannot move to the
	// requested status from its current one.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotModified is returned when a module is already in the requested status.
	ErrNotModified = errors.New("module already in requested state")
	// ErrInvalidSpec is returned for module specs without a name or type.
	ErrInvalidSpec = errors.New("invalid module spec")
)

// Engine applies management operations to the store.
type Engine struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles on module state.
	mu sync.Mutex
}

// NewEngine creates a new engine.
func NewEngine(s store.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  s,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateIdentity registers a module identity with a fresh generation ID.
func (e *Engine) CreateIdentity(ctx context.Context, name, managedBy string) (model.Identity, error) {
	id := model.Identity{ModuleID: name, GenerationID: model.NewGenerationID(), ManagedBy: managedBy}
	if err := e.store.CreateIdentity(ctx, id); err != nil {
		return model.Identity{}, fmt.Errorf("create identity %s: %w", name, err)
	}
	e.logger.Info("identity created", "module", name, "generation_id", id.GenerationID)
	return id, nil
}

// UpdateIdentity rotates the generation ID of an existing identity. The
// caller's generation ID names the generation being replaced.
func (e *Engine) UpdateIdentity(ctx context.Context, name, generationID, managedBy string) (model.Identity, error) {
	id := model.Identity{ModuleID: name, GenerationID: model.NewGenerationID(), ManagedBy: managedBy}
	if err := e.store.UpdateIdentity(ctx, id); err != nil {
		return model.Identity{}, fmt.Errorf("update identity %s: %w", name, err)
	}
	e.logger.Info("identity updated", "module", name, "previous_generation_id", generationID, "generation_id", id.GenerationID)
	return id, nil
}

func (e *Engine) DeleteIdentity(ctx context.Context, name string) error {
	if err := e.store.DeleteIdentity(ctx, name); err != nil {
		return fmt.Errorf("delete identity %s: %w", name, err)
	}
	e.logger.Info("identity deleted", "module", name)
	return nil
}

func (e *Engine) ListIdentities(ctx context.Context) ([]model.Identity, error) {
	return e.store.ListIdentities(ctx)
}

// CreateModule stores a new module in the stopped state.
func (e *Engine) CreateModule(ctx context.Context, spec model.ModuleSpec) (*store.Module, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	m := &store.Module{
		ID:          model.NewGenerationID(),
		Spec:        spec,
		Status:      model.StatusStopped,
		Description: "created",
		CreatedAt:   e.now(),
	}
	if err := e.store.CreateModule(ctx, m); err != nil {
		return nil, fmt.Errorf("create module %s: %w", spec.Name, err)
	}
	e.logger.Info("module created", "module", spec.Name, "type", spec.Type)
	return m, nil
}

func (e *Engine) GetModule(ctx context.Context, name string) (*store.Module, error) {
	return e.store.GetModule(ctx, name)
}

func (e *Engine) ListModules(ctx context.Context) ([]*store.Module, error) {
	return e.store.ListModules(ctx)
}

// UpdateModule replaces a module's spec, keeping its status. With start set
// the module is also started unless it is already running.
func (e *Engine) UpdateModule(ctx context.Context, spec model.ModuleSpec, start bool) (*store.Module, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.store.GetModule(ctx, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("update module %s: %w", spec.Name, err)
	}

	// The start is checked before anything is written so a rejected update
	// leaves the old spec in place.
	from := m.Status
	started := start && m.Status != model.StatusRunning
	if started {
		if err := e.advance(m, model.StatusRunning); err != nil {
			return nil, fmt.Errorf("start module %s: %w", spec.Name, err)
		}
	}

	if err := e.store.UpdateModuleSpec(ctx, spec); err != nil {
		return nil, fmt.Errorf("update module %s: %w", spec.Name, err)
	}
	m.Spec = spec
	e.logger.Info("module updated", "module", spec.Name, "start", start)

	if started {
		if err := e.persist(ctx, m, from); err != nil {
			return nil, fmt.Errorf("start module %s: %w", spec.Name, err)
		}
	}
	return m, nil
}

// PrepareUpdate acknowledges an upcoming update. It only checks the module exists.
func (e *Engine) PrepareUpdate(ctx context.Context, spec model.ModuleSpec) error {
	if _, err := e.store.GetModule(ctx, spec.Name); err != nil {
		return fmt.Errorf("prepare update %s: %w", spec.Name, err)
	}
	e.logger.Info("module update prepared", "module", spec.Name)
	return nil
}

func (e *Engine) DeleteModule(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.DeleteModule(ctx, name); err != nil {
		return fmt.Errorf("delete module %s: %w", name, err)
	}
	e.logger.Info("module deleted", "module", name)
	return nil
}

// StartModule moves a module to running. It returns ErrNotModified when the
// module is already running.
func (e *Engine) StartModule(ctx context.Context, name string) error {
	return e.apply(ctx, name, "start", func(m *store.Module) error {
		if m.Status == model.StatusRunning {
			return ErrNotModified
		}
		return e.transition(ctx, m, model.StatusRunning)
	})
}

// StopModule moves a module to stopped. It returns ErrNotModified when the
// module is already stopped.
func (e *Engine) StopModule(ctx context.Context, name string) error {
	return e.apply(ctx, name, "stop", func(m *store.Module) error {
		if m.Status == model.StatusStopped {
			return ErrNotModified
		}
		return e.transition(ctx, m, model.StatusStopped)
	})
}

// RestartModule stops a module that is not already stopped, then starts it.
func (e *Engine) RestartModule(ctx context.Context, name string) error {
	return e.apply(ctx, name, "restart", func(m *store.Module) error {
		if m.Status == model.StatusRunning || m.Status == model.StatusUnhealthy {
			if err := e.transition(ctx, m, model.StatusStopped); err != nil {
				return err
			}
		}
		return e.transition(ctx, m, model.StatusRunning)
	})
}

// Ping checks the backing store.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// SystemInfo describes the host the simulator runs on.
func (e *Engine) SystemInfo() model.SystemInfo {
	return model.SystemInfo{
		OSType:       runtime.GOOS,
		Architecture: runtime.GOARCH,
		Version:      Version,
	}
}

func (e *Engine) apply(ctx context.Context, name, action string, fn func(*store.Module) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.store.GetModule(ctx, name)
	if err != nil {
		return fmt.Errorf("%s module %s: %w", action, name, err)
	}
	if err := fn(m); err != nil {
		return fmt.Errorf("%s module %s: %w", action, name, err)
	}
	return nil
}

// transition validates and persists a status change. Callers hold e.mu.
func (e *Engine) transition(ctx context.Context, m *store.Module, to model.ModuleStatus) error {
	from := m.Status
	if err := e.advance(m, to); err != nil {
		return err
	}
	return e.persist(ctx, m, from)
}

// advance moves m to a new status in memory, stamping start or exit details.
func (e *Engine) advance(m *store.Module, to model.ModuleStatus) error {
	from := m.Status
	if !model.ValidTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	now := e.now()
	switch to {
	case model.StatusRunning:
		m.StartTime = &now
		m.Description = "running"
	case model.StatusStopped:
		code := int64(0)
		m.ExitTime = &now
		m.ExitCode = &code
		m.Description = "stopped"
	}
	m.Status = to
	return nil
}

func (e *Engine) persist(ctx context.Context, m *store.Module, from model.ModuleStatus) error {
	if err := e.store.UpdateModuleState(ctx, m); err != nil {
		return err
	}
	e.logger.Info("module status changed", "module", m.Spec.Name, "from", from.String(), "to", m.Status.String())
	return nil
}

func validateSpec(spec model.ModuleSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSpec)
	}
	if spec.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidSpec)
	}
	return nil
}
