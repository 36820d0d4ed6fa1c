package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
	schedulingPersistence "github.com/felixgeelhaar/reflow/internal/scheduling/infrastructure/persistence"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/outbox"
)

// RepositoryFactory holds the repository set for one database connection.
// Both backends speak through database.Connection, so the driver only
// decides which SQL dialect each repository uses.
type RepositoryFactory struct {
	conn       database.Connection
	runRepo    domain.RunRepository
	outboxRepo outbox.Repository
}

// NewRepositoryFactory builds the repositories for the connection's backend.
func NewRepositoryFactory(conn database.Connection) (*RepositoryFactory, error) {
	f := &RepositoryFactory{conn: conn}

	switch conn.Driver() {
	case database.DriverPostgres:
		f.runRepo = schedulingPersistence.NewPostgresRunRepository(conn)
		f.outboxRepo = outbox.NewPostgresRepository(conn)
	case database.DriverSQLite:
		f.runRepo = schedulingPersistence.NewSQLiteRunRepository(conn)
		f.outboxRepo = outbox.NewSQLiteRepository(conn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", conn.Driver())
	}

	return f, nil
}

// RunRepository returns the reflow run repository.
func (f *RepositoryFactory) RunRepository() domain.RunRepository { return f.runRepo }

// OutboxRepository returns the outbox repository.
func (f *RepositoryFactory) OutboxRepository() outbox.Repository { return f.outboxRepo }

// Migrate applies all pending schema migrations. The migration runners need
// the driver-specific handles, which the concrete connections expose.
func (f *RepositoryFactory) Migrate(ctx context.Context) error {
	switch f.conn.Driver() {
	case database.DriverPostgres:
		pgConn, ok := f.conn.(interface{ Pool() *pgxpool.Pool })
		if !ok {
			return fmt.Errorf("postgres connection does not expose Pool()")
		}
		return migrations.RunPostgresMigrations(ctx, pgConn.Pool())

	case database.DriverSQLite:
		sqliteConn, ok := f.conn.(interface{ DB() *sql.DB })
		if !ok {
			return fmt.Errorf("sqlite connection does not expose DB()")
		}
		return migrations.RunSQLiteMigrations(ctx, sqliteConn.DB())

	default:
		return fmt.Errorf("unsupported database driver: %s", f.conn.Driver())
	}
}
