package application

import "context"

// UnitOfWork scopes a transaction over multiple repository writes.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc runs within a unit of work, receiving the transaction context.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork runs fn inside a transaction, committing on success and
// rolling back on error. The function's error wins over the rollback error.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	return uow.Commit(txCtx)
}

// NoopUnitOfWork satisfies UnitOfWork without any transaction. Used with
// in-memory repositories, which are atomic per call.
type NoopUnitOfWork struct{}

// NewNoopUnitOfWork creates a unit of work that does nothing.
func NewNoopUnitOfWork() *NoopUnitOfWork {
	return &NoopUnitOfWork{}
}

// Begin returns the context unchanged.
func (NoopUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

// Commit does nothing.
func (NoopUnitOfWork) Commit(ctx context.Context) error { return nil }

// Rollback does nothing.
func (NoopUnitOfWork) Rollback(ctx context.Context) error { return nil }
