package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/seantiz/edgemgmt/internal/model"

	_ "modernc.org/sqlite"
)

const createIdentitiesTable = `
CREATE TABLE IF NOT EXISTS identities (
    module_id     TEXT PRIMARY KEY,
    generation_id TEXT NOT NULL,
    managed_by    TEXT NOT NULL
)`

const createModulesTable = `
CREATE TABLE IF NOT EXISTS modules (
    name        TEXT PRIMARY KEY,
    id          TEXT NOT NULL,
    type        TEXT NOT NULL,
    env         TEXT NOT NULL,
    settings    TEXT,
    status      TEXT NOT NULL,
    description TEXT NOT NULL,
    start_time  DATETIME,
    exit_time   DATETIME,
    exit_code   INTEGER,
    created_at  DATETIME NOT NULL
)`

const moduleColumns = `name, id, type, env, settings, status, description,
	start_time, exit_time, exit_code, created_at`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range []struct{ name, sql string }{
		{"set WAL mode", "PRAGMA journal_mode=WAL"},
		{"set busy timeout", "PRAGMA busy_timeout = 5000"},
		{"create identities table", createIdentitiesTable},
		{"create modules table", createModulesTable},
	} {
		if _, err := db.Exec(stmt.sql); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", stmt.name, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Ping checks the database is still reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateIdentity(ctx context.Context, id model.Identity) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (module_id, generation_id, managed_by) VALUES (?, ?, ?)
		ON CONFLICT (module_id) DO NOTHING`,
		id.ModuleID, id.GenerationID, id.ManagedBy,
	)
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return expectRow(result, ErrConflict)
}

func (s *SQLiteStore) GetIdentity(ctx context.Context, name string) (model.Identity, error) {
	var id model.Identity
	err := s.db.QueryRowContext(ctx,
		`SELECT module_id, generation_id, managed_by FROM identities WHERE module_id = ?`, name,
	).Scan(&id.ModuleID, &id.GenerationID, &id.ManagedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Identity{}, ErrNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("get identity: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) UpdateIdentity(ctx context.Context, id model.Identity) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE identities SET generation_id = ?, managed_by = ? WHERE module_id = ?`,
		id.GenerationID, id.ManagedBy, id.ModuleID,
	)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return expectRow(result, ErrNotFound)
}

func (s *SQLiteStore) DeleteIdentity(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE module_id = ?`, name)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return expectRow(result, ErrNotFound)
}

// ListIdentities returns all identities ordered by module ID.
func (s *SQLiteStore) ListIdentities(ctx context.Context) ([]model.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT module_id, generation_id, managed_by FROM identities ORDER BY module_id`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var ids []model.Identity
	for rows.Next() {
		var id model.Identity
		if err := rows.Scan(&id.ModuleID, &id.GenerationID, &id.ManagedBy); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return ids, nil
}

// CreateModule inserts a new module record.
func (s *SQLiteStore) CreateModule(ctx context.Context, m *Module) error {
	env, settings, err := encodeSpec(m.Spec)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO modules (`+moduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING`,
		m.Spec.Name, m.ID, m.Spec.Type, env, settings, m.Status.String(), m.Description,
		m.StartTime, m.ExitTime, m.ExitCode, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	return expectRow(result, ErrConflict)
}

// GetModule retrieves a module by name.
func (s *SQLiteStore) GetModule(ctx context.Context, name string) (*Module, error) {
	m, err := scanModule(s.db.QueryRowContext(ctx,
		`SELECT `+moduleColumns+` FROM modules WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	return m, nil
}

// ListModules returns all modules ordered by creation time.
func (s *SQLiteStore) ListModules(ctx context.Context) ([]*Module, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+moduleColumns+` FROM modules ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var modules []*Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modules: %w", err)
	}
	return modules, nil
}

// UpdateModuleSpec replaces the type, environment and settings of a module.
func (s *SQLiteStore) UpdateModuleSpec(ctx context.Context, spec model.ModuleSpec) error {
	env, settings, err := encodeSpec(spec)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE modules SET type = ?, env = ?, settings = ? WHERE name = ?`,
		spec.Type, env, settings, spec.Name,
	)
	if err != nil {
		return fmt.Errorf("update module spec: %w", err)
	}
	return expectRow(result, ErrNotFound)
}

// UpdateModuleState persists the runtime fields of m.
func (s *SQLiteStore) UpdateModuleState(ctx context.Context, m *Module) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE modules SET status = ?, description = ?, start_time = ?, exit_time = ?, exit_code = ?
		WHERE name = ?`,
		m.Status.String(), m.Description, m.StartTime, m.ExitTime, m.ExitCode, m.Spec.Name,
	)
	if err != nil {
		return fmt.Errorf("update module state: %w", err)
	}
	return expectRow(result, ErrNotFound)
}

func (s *SQLiteStore) DeleteModule(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return expectRow(result, ErrNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModule(row rowScanner) (*Module, error) {
	var (
		m        Module
		env      string
		settings sql.NullString
		status   string
	)
	if err := row.Scan(
		&m.Spec.Name, &m.ID, &m.Spec.Type, &env, &settings, &status, &m.Description,
		&m.StartTime, &m.ExitTime, &m.ExitCode, &m.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(env), &m.Spec.EnvironmentVariables); err != nil {
		return nil, fmt.Errorf("decode env of %s: %w", m.Spec.Name, err)
	}
	if settings.Valid {
		m.Spec.Settings = json.RawMessage(settings.String)
	}
	m.Status, _ = model.ParseModuleStatus(status)
	return &m, nil
}

func encodeSpec(spec model.ModuleSpec) (env string, settings sql.NullString, err error) {
	data, err := json.Marshal(spec.EnvironmentVariables)
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("encode env: %w", err)
	}
	if spec.Settings != nil {
		settings = sql.NullString{String: string(spec.Settings), Valid: true}
	}
	return string(data), settings, nil
}

// expectRow maps a write that touched no rows to errNone.
func expectRow(result sql.Result, errNone error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return errNone
	}
	return nil
}
