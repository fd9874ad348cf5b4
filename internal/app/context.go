package app

import (
	"context"
	"database/sql"
	"fmt"

	"langcodec/internal/config"
	"langcodec/internal/db"
	"langcodec/internal/events"
	"langcodec/internal/migrate"
	"langcodec/internal/store"
)

// Workspace bundles the migrated database, the store on top of it and the
// workspace config.
type Workspace struct {
	Dir    string
	Config *config.Config
	DB     *sql.DB
	Store  store.Store
	Events events.Writer
}

// OpenWorkspace opens and migrates the workspace database and loads the
// optional config, falling back to config.Default when none exists.
func OpenWorkspace(ctx context.Context, dir string) (*Workspace, error) {
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open workspace db: %w", err)
	}
	if err := migrate.MigrateContext(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Workspace{
		Dir:    dir,
		Config: cfg,
		DB:     conn,
		Store:  store.Store{DB: conn},
		Events: events.Writer{DB: conn},
	}, nil
}

// LoadConfig returns the workspace config or the defaults.
func LoadConfig(dir string) (*config.Config, error) {
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

func (w *Workspace) Close() error {
	return w.DB.Close()
}
