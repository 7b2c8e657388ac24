package store

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

func prepareGoose() error {
	goose.SetBaseFS(migrationFiles)
	return goose.SetDialect("postgres")
}

// Migrate applies the embedded SQL migrations. A nil database is a no-op.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return nil
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, migrationsDir)
}

// Reset rolls back every migration and applies them again.
func Reset(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return nil
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.ResetContext(ctx, db, migrationsDir); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, migrationsDir)
}

// Version returns the currently applied migration version.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	if err := prepareGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}
