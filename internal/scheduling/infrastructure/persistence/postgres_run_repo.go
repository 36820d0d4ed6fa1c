// Package persistence implements RunRepository on PostgreSQL, SQLite and
// memory. Results are a child table keyed by (run_id, position) so the
// processing order survives the round trip.
package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/database"
)

const pgInsertRunSQL = `
	INSERT INTO reflow_runs (
		id, timezone, allow_earlier_start, total_orders, rescheduled_count,
		fixed_count, processing_time_ms, warnings, requested_at, created_at,
		updated_at, version
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		timezone = EXCLUDED.timezone,
		allow_earlier_start = EXCLUDED.allow_earlier_start,
		total_orders = EXCLUDED.total_orders,
		rescheduled_count = EXCLUDED.rescheduled_count,
		fixed_count = EXCLUDED.fixed_count,
		processing_time_ms = EXCLUDED.processing_time_ms,
		warnings = EXCLUDED.warnings,
		requested_at = EXCLUDED.requested_at,
		updated_at = EXCLUDED.updated_at,
		version = EXCLUDED.version
`

const pgInsertResultSQL = `
	INSERT INTO reflow_run_results (
		run_id, position, work_order_id, work_order_number, original_start,
		original_end, new_start, new_end, rescheduled, fixed
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const pgSelectRunColumns = `
	SELECT id, timezone, allow_earlier_start, total_orders, rescheduled_count,
	       fixed_count, processing_time_ms, warnings, requested_at, created_at,
	       updated_at, version
	FROM reflow_runs
`

const pgSelectResultsSQL = `
	SELECT work_order_id, work_order_number, original_start, original_end,
	       new_start, new_end, rescheduled, fixed
	FROM reflow_run_results
	WHERE run_id = $1
	ORDER BY position
`

// PostgresRunRepository implements domain.RunRepository on PostgreSQL.
type PostgresRunRepository struct {
	conn database.Connection
}

// NewPostgresRunRepository creates a PostgreSQL run repository.
func NewPostgresRunRepository(conn database.Connection) *PostgresRunRepository {
	return &PostgresRunRepository{conn: conn}
}

// Save persists a run with its results. It joins a context transaction when
// present, otherwise it opens its own.
func (r *PostgresRunRepository) Save(ctx context.Context, run *domain.ReflowRun) error {
	if tx := database.TxFromContext(ctx); tx != nil {
		return r.save(ctx, tx, run)
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.save(ctx, tx, run); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresRunRepository) save(ctx context.Context, execer database.Executor, run *domain.ReflowRun) error {
	warnings, err := marshalWarnings(run.Warnings())
	if err != nil {
		return err
	}

	metadata := run.Metadata()
	_, err = execer.Exec(ctx, pgInsertRunSQL,
		run.ID(),
		run.Timezone(),
		run.AllowEarlierStart(),
		metadata.TotalOrders,
		metadata.RescheduledCount,
		metadata.FixedCount,
		metadata.ProcessingTimeMs,
		warnings,
		run.RequestedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
		run.Version(),
	)
	if err != nil {
		return err
	}

	// Results are immutable per run; replace wholesale on update.
	if _, err := execer.Exec(ctx, `DELETE FROM reflow_run_results WHERE run_id = $1`, run.ID()); err != nil {
		return err
	}

	for position, result := range run.Results() {
		_, err := execer.Exec(ctx, pgInsertResultSQL,
			run.ID(),
			position,
			result.WorkOrderID,
			result.WorkOrderNumber,
			result.OriginalStart,
			result.OriginalEnd,
			result.NewStart,
			result.NewEnd,
			result.Rescheduled,
			result.Fixed,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a run by its id. Returns (nil, nil) when absent.
func (r *PostgresRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReflowRun, error) {
	execer := database.ExecutorFromContext(ctx, r.conn)

	row := execer.QueryRow(ctx, pgSelectRunColumns+` WHERE id = $1`, id)
	run, err := r.scanRun(ctx, execer, row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRecent returns up to limit runs, newest request first.
func (r *PostgresRunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ReflowRun, error) {
	execer := database.ExecutorFromContext(ctx, r.conn)

	rows, err := execer.Query(ctx, pgSelectRunColumns+` ORDER BY requested_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var headers []runHeader
	for rows.Next() {
		header, err := scanRunHeader(rows)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	runs := make([]*domain.ReflowRun, 0, len(headers))
	for _, header := range headers {
		results, err := r.loadResults(ctx, execer, header.id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, header.rehydrate(results))
	}
	return runs, nil
}

func (r *PostgresRunRepository) scanRun(ctx context.Context, execer database.Executor, row database.Row) (*domain.ReflowRun, error) {
	header, err := scanRunHeader(row)
	if err != nil {
		return nil, err
	}

	results, err := r.loadResults(ctx, execer, header.id)
	if err != nil {
		return nil, err
	}
	return header.rehydrate(results), nil
}

func (r *PostgresRunRepository) loadResults(ctx context.Context, execer database.Executor, runID uuid.UUID) ([]domain.ReflowResult, error) {
	rows, err := execer.Query(ctx, pgSelectResultsSQL, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ReflowResult
	for rows.Next() {
		var result domain.ReflowResult
		err := rows.Scan(
			&result.WorkOrderID,
			&result.WorkOrderNumber,
			&result.OriginalStart,
			&result.OriginalEnd,
			&result.NewStart,
			&result.NewEnd,
			&result.Rescheduled,
			&result.Fixed,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// runHeader is the reflow_runs row without its results.
type runHeader struct {
	id                uuid.UUID
	timezone          string
	allowEarlierStart bool
	metadata          domain.ReflowMetadata
	warnings          []string
	requestedAt       time.Time
	createdAt         time.Time
	updatedAt         time.Time
	version           int
}

func scanRunHeader(row database.Row) (runHeader, error) {
	var (
		header       runHeader
		warningsJSON []byte
	)
	err := row.Scan(
		&header.id,
		&header.timezone,
		&header.allowEarlierStart,
		&header.metadata.TotalOrders,
		&header.metadata.RescheduledCount,
		&header.metadata.FixedCount,
		&header.metadata.ProcessingTimeMs,
		&warningsJSON,
		&header.requestedAt,
		&header.createdAt,
		&header.updatedAt,
		&header.version,
	)
	if err != nil {
		return runHeader{}, err
	}

	if err := json.Unmarshal(warningsJSON, &header.warnings); err != nil {
		return runHeader{}, err
	}
	return header, nil
}

func (h runHeader) rehydrate(results []domain.ReflowResult) *domain.ReflowRun {
	return domain.RehydrateReflowRun(
		h.id,
		h.timezone,
		h.allowEarlierStart,
		results,
		h.warnings,
		h.metadata,
		h.requestedAt,
		h.createdAt,
		h.updatedAt,
		h.version,
	)
}

// marshalWarnings keeps the column JSON-typed even for runs with no warnings.
func marshalWarnings(warnings []string) ([]byte, error) {
	if warnings == nil {
		warnings = []string{}
	}
	return json.Marshal(warnings)
}
