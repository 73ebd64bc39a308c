// Package migrations embeds the schema of the client-side session database
// and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/dmitrijs2005/pharmalink/internal/dbx"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Up applies all pending migrations for the dialect. It is idempotent.
func Up(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	var (
		gd  database.Dialect
		dir string
	)
	switch dialect {
	case dbx.DialectSQLite:
		gd, dir = database.DialectSQLite3, "sqlite"
	case dbx.DialectPostgres:
		gd, dir = database.DialectPostgres, "postgres"
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	sub, err := fs.Sub(files, dir)
	if err != nil {
		return err
	}

	p, err := goose.NewProvider(gd, db, sub)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
