package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/tourismsite/tourism/internal/infrastructure/db/postgres/migrations"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for opening the PostgreSQL database.
type Config struct {
	DSN     string
	Migrate bool
	Timeout time.Duration
}

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Connect opens the database through the pgx stdlib driver, verifies it with
// a ping and, when cfg.Migrate is set, applies the embedded migrations.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	configurePool(db)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if cfg.Migrate {
		if err := RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// configurePool disables idle connections: every repository call gets a
// fresh connection that is closed when the call returns.
func configurePool(db *sql.DB) {
	db.SetMaxIdleConns(0)
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}
