// Package migrations applies the embedded schema migrations for both
// database backends. Files run in filename order and are idempotent
// (CREATE TABLE IF NOT EXISTS), so startup re-runs are safe.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationFS embed.FS

// apply runs every *.up.sql under dir in sorted order, feeding each file's
// statements to exec.
func apply(ctx context.Context, dir string, exec func(ctx context.Context, stmts string) error) error {
	entries, err := migrationFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		stmts, err := migrationFS.ReadFile(dir + "/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if err := exec(ctx, string(stmts)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}
	return nil
}

// RunPostgresMigrations applies the PostgreSQL schema. A migration file may
// hold several statements; Exec without arguments uses the simple protocol,
// which allows that.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	return apply(ctx, "postgres", func(ctx context.Context, stmts string) error {
		_, err := pool.Exec(ctx, stmts)
		return err
	})
}

// RunSQLiteMigrations applies the SQLite schema.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	return apply(ctx, "sqlite", func(ctx context.Context, stmts string) error {
		_, err := db.ExecContext(ctx, stmts)
		return err
	})
}
