package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/database"
)

// SQLite stores timestamps as RFC 3339 TEXT so ordering works
// lexicographically, and booleans as 0/1 INTEGER.
const sqliteTimeFormat = time.RFC3339

const sqliteInsertRunSQL = `
	INSERT INTO reflow_runs (
		id, timezone, allow_earlier_start, total_orders, rescheduled_count,
		fixed_count, processing_time_ms, warnings, requested_at, created_at,
		updated_at, version
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		timezone = excluded.timezone,
		allow_earlier_start = excluded.allow_earlier_start,
		total_orders = excluded.total_orders,
		rescheduled_count = excluded.rescheduled_count,
		fixed_count = excluded.fixed_count,
		processing_time_ms = excluded.processing_time_ms,
		warnings = excluded.warnings,
		requested_at = excluded.requested_at,
		updated_at = excluded.updated_at,
		version = excluded.version
`

const sqliteInsertResultSQL = `
	INSERT INTO reflow_run_results (
		run_id, position, work_order_id, work_order_number, original_start,
		original_end, new_start, new_end, rescheduled, fixed
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const sqliteSelectRunColumns = `
	SELECT id, timezone, allow_earlier_start, total_orders, rescheduled_count,
	       fixed_count, processing_time_ms, warnings, requested_at, created_at,
	       updated_at, version
	FROM reflow_runs
`

const sqliteSelectResultsSQL = `
	SELECT work_order_id, work_order_number, original_start, original_end,
	       new_start, new_end, rescheduled, fixed
	FROM reflow_run_results
	WHERE run_id = ?
	ORDER BY position
`

// SQLiteRunRepository implements domain.RunRepository on SQLite.
type SQLiteRunRepository struct {
	conn database.Connection
}

// NewSQLiteRunRepository creates a SQLite run repository.
func NewSQLiteRunRepository(conn database.Connection) *SQLiteRunRepository {
	return &SQLiteRunRepository{conn: conn}
}

// Save persists a run with its results. It joins a context transaction when
// present, otherwise it opens its own.
func (r *SQLiteRunRepository) Save(ctx context.Context, run *domain.ReflowRun) error {
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

func (r *SQLiteRunRepository) save(ctx context.Context, execer database.Executor, run *domain.ReflowRun) error {
	warnings, err := marshalWarnings(run.Warnings())
	if err != nil {
		return err
	}

	metadata := run.Metadata()
	_, err = execer.Exec(ctx, sqliteInsertRunSQL,
		run.ID().String(),
		run.Timezone(),
		boolToInt64(run.AllowEarlierStart()),
		metadata.TotalOrders,
		metadata.RescheduledCount,
		metadata.FixedCount,
		metadata.ProcessingTimeMs,
		string(warnings),
		run.RequestedAt().UTC().Format(sqliteTimeFormat),
		run.CreatedAt().UTC().Format(sqliteTimeFormat),
		run.UpdatedAt().UTC().Format(sqliteTimeFormat),
		run.Version(),
	)
	if err != nil {
		return err
	}

	if _, err := execer.Exec(ctx, `DELETE FROM reflow_run_results WHERE run_id = ?`, run.ID().String()); err != nil {
		return err
	}

	for position, result := range run.Results() {
		_, err := execer.Exec(ctx, sqliteInsertResultSQL,
			run.ID().String(),
			position,
			result.WorkOrderID,
			result.WorkOrderNumber,
			result.OriginalStart.UTC().Format(sqliteTimeFormat),
			result.OriginalEnd.UTC().Format(sqliteTimeFormat),
			result.NewStart.UTC().Format(sqliteTimeFormat),
			result.NewEnd.UTC().Format(sqliteTimeFormat),
			boolToInt64(result.Rescheduled),
			boolToInt64(result.Fixed),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a run by its id. Returns (nil, nil) when absent.
func (r *SQLiteRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReflowRun, error) {
	execer := database.ExecutorFromContext(ctx, r.conn)

	row := execer.QueryRow(ctx, sqliteSelectRunColumns+` WHERE id = ?`, id.String())
	header, err := scanSQLiteRunHeader(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	results, err := r.loadResults(ctx, execer, header.id)
	if err != nil {
		return nil, err
	}
	return header.rehydrate(results), nil
}

// ListRecent returns up to limit runs, newest request first.
func (r *SQLiteRunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ReflowRun, error) {
	execer := database.ExecutorFromContext(ctx, r.conn)

	rows, err := execer.Query(ctx, sqliteSelectRunColumns+` ORDER BY requested_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var headers []runHeader
	for rows.Next() {
		header, err := scanSQLiteRunHeader(rows)
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

func (r *SQLiteRunRepository) loadResults(ctx context.Context, execer database.Executor, runID uuid.UUID) ([]domain.ReflowResult, error) {
	rows, err := execer.Query(ctx, sqliteSelectResultsSQL, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ReflowResult
	for rows.Next() {
		var (
			result             domain.ReflowResult
			origStart, origEnd string
			newStart, newEnd   string
			rescheduled, fixed int64
		)
		err := rows.Scan(
			&result.WorkOrderID,
			&result.WorkOrderNumber,
			&origStart,
			&origEnd,
			&newStart,
			&newEnd,
			&rescheduled,
			&fixed,
		)
		if err != nil {
			return nil, err
		}

		if result.OriginalStart, err = time.Parse(sqliteTimeFormat, origStart); err != nil {
			return nil, err
		}
		if result.OriginalEnd, err = time.Parse(sqliteTimeFormat, origEnd); err != nil {
			return nil, err
		}
		if result.NewStart, err = time.Parse(sqliteTimeFormat, newStart); err != nil {
			return nil, err
		}
		if result.NewEnd, err = time.Parse(sqliteTimeFormat, newEnd); err != nil {
			return nil, err
		}
		result.Rescheduled = rescheduled != 0
		result.Fixed = fixed != 0
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanSQLiteRunHeader(row database.Row) (runHeader, error) {
	var (
		header            runHeader
		id                string
		allowEarlierStart int64
		warningsJSON      string
		requestedAt       string
		createdAt         string
		updatedAt         string
	)
	err := row.Scan(
		&id,
		&header.timezone,
		&allowEarlierStart,
		&header.metadata.TotalOrders,
		&header.metadata.RescheduledCount,
		&header.metadata.FixedCount,
		&header.metadata.ProcessingTimeMs,
		&warningsJSON,
		&requestedAt,
		&createdAt,
		&updatedAt,
		&header.version,
	)
	if err != nil {
		return runHeader{}, err
	}

	if header.id, err = uuid.Parse(id); err != nil {
		return runHeader{}, err
	}
	header.allowEarlierStart = allowEarlierStart != 0
	if err := json.Unmarshal([]byte(warningsJSON), &header.warnings); err != nil {
		return runHeader{}, err
	}
	if header.requestedAt, err = time.Parse(sqliteTimeFormat, requestedAt); err != nil {
		return runHeader{}, err
	}
	if header.createdAt, err = time.Parse(sqliteTimeFormat, createdAt); err != nil {
		return runHeader{}, err
	}
	if header.updatedAt, err = time.Parse(sqliteTimeFormat, updatedAt); err != nil {
		return runHeader{}, err
	}
	return header, nil
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
