package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTx struct {
	committed  bool
	rolledBack bool
}

func (t *stubTx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return nil, nil
}
func (t *stubTx) QueryRow(ctx context.Context, query string, args ...any) Row { return nil }
func (t *stubTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return nil, nil
}
func (t *stubTx) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *stubTx) Rollback(ctx context.Context) error { t.rolledBack = true; return nil }

type stubConn struct {
	tx     *stubTx
	begins int
}

func (c *stubConn) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return nil, nil
}
func (c *stubConn) QueryRow(ctx context.Context, query string, args ...any) Row { return nil }
func (c *stubConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return nil, nil
}
func (c *stubConn) BeginTx(ctx context.Context) (Transaction, error) {
	c.begins++
	c.tx = &stubTx{}
	return c.tx, nil
}
func (c *stubConn) Close() error                   { return nil }
func (c *stubConn) Ping(ctx context.Context) error { return nil }
func (c *stubConn) Driver() Driver                 { return DriverSQLite }

func TestGenericUnitOfWork_OwnsNewTransaction(t *testing.T) {
	conn := &stubConn{}
	uow := NewUnitOfWork(conn)

	ctx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	assert.Same(t, conn.tx, TxFromContext(ctx))

	require.NoError(t, uow.Commit(ctx))
	assert.True(t, conn.tx.committed)
}

func TestGenericUnitOfWork_ReusesOuterTransaction(t *testing.T) {
	conn := &stubConn{}
	uow := NewUnitOfWork(conn)

	outerCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)

	innerCtx, err := uow.Begin(outerCtx)
	require.NoError(t, err)
	assert.Equal(t, 1, conn.begins, "nested scope must not open a second transaction")
	assert.Same(t, conn.tx, TxFromContext(innerCtx))

	// Inner commit and rollback are no-ops for a borrowed transaction.
	require.NoError(t, uow.Commit(innerCtx))
	assert.False(t, conn.tx.committed)
	require.NoError(t, uow.Rollback(innerCtx))
	assert.False(t, conn.tx.rolledBack)

	require.NoError(t, uow.Commit(outerCtx))
	assert.True(t, conn.tx.committed)
}

func TestGenericUnitOfWork_ErrorsWithoutTransaction(t *testing.T) {
	uow := NewUnitOfWork(&stubConn{})

	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoTransaction)
}

func TestExecutorFromContext(t *testing.T) {
	conn := &stubConn{}

	// Without a transaction the connection itself is the executor.
	assert.Equal(t, Executor(conn), ExecutorFromContext(context.Background(), conn))

	ctx, err := NewUnitOfWork(conn).Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Executor(conn.tx), ExecutorFromContext(ctx, conn))
}
