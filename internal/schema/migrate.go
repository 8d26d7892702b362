package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/mickamy/activerecord/orm"
)

//go:embed migrations
var migrations embed.FS

// provider returns a goose provider over the migrations for dialect d.
// Each dialect keeps its own directory because the DDL differs.
func provider(db *sql.DB, d orm.Dialect) (*goose.Provider, error) {
	var gd goose.Dialect
	switch d.Name() {
	case "mysql":
		gd = goose.DialectMySQL
	case "postgres":
		gd = goose.DialectPostgres
	case "sqlite":
		gd = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("schema: no migrations for dialect %q", d.Name())
	}

	fsys, err := fs.Sub(migrations, "migrations/"+d.Name())
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	p, err := goose.NewProvider(gd, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, nil
}

// Migrate applies all pending migrations and returns how many ran.
func Migrate(ctx context.Context, db *sql.DB, d orm.Dialect) (int, error) {
	p, err := provider(db, d)
	if err != nil {
		return 0, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("failed to run migrations: %w", err)
	}
	return len(results), nil
}

// Version returns the current migration version of db.
func Version(ctx context.Context, db *sql.DB, d orm.Dialect) (int64, error) {
	p, err := provider(db, d)
	if err != nil {
		return 0, err
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return v, nil
}
