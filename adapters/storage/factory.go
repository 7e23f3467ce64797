package storage

import (
	"context"
	"os"
	"path/filepath"

	"roofquote/internal/config"
	"roofquote/internal/errors"
)

// Migrator is implemented by the SQL-backed stores
type Migrator interface {
	Migrate() error
	Rollback() error
	SchemaVersion() (int64, error)
}

// Open creates the store selected by configuration. The "none" backend
// returns a nil Store; callers treat that as persistence being off.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch Backend(cfg.Backend) {
	case BackendNone:
		return nil, nil
	case BackendFile, "":
		store, err = NewFileStore(cfg.Directory)
	case BackendMemory:
		store = NewMemoryStore()
	case BackendSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
				return nil, errors.Wrap(errors.TypeExternal, "create storage directory", err)
			}
			dsn = filepath.Join(cfg.Directory, "roofquote.db")
		}
		store, err = OpenSQLite(dsn)
	case BackendMySQL:
		store, err = OpenMySQL(cfg.DSN)
	case BackendPostgres:
		store, err = OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported storage backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.TypeExternal, err, "open %s store", cfg.Backend)
	}

	if m, ok := store.(Migrator); ok && cfg.MigrateOnStart {
		if err := m.Migrate(); err != nil {
			store.Close()
			return nil, errors.Wrap(errors.TypeExternal, "migrate store", err)
		}
	}
	return store, nil
}
