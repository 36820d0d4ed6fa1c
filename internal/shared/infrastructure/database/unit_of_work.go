package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by Commit or Rollback outside a Begin scope.
var ErrNoTransaction = errors.New("no transaction in context")

// GenericUnitOfWork implements application.UnitOfWork over any Connection.
// Nested Begin calls share the outer transaction; only the scope that
// opened it settles it.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work bound to the given connection.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

// Begin starts a transaction and stores it in the context. A context that
// already carries one is reused, marked as not owned.
func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if scope, ok := txScopeFrom(ctx); ok {
		return withTxScope(ctx, scope.tx, false), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return withTxScope(ctx, tx, true), nil
}

// Commit commits the transaction when this scope owns it.
func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	return settle(ctx, Transaction.Commit)
}

// Rollback rolls back the transaction when this scope owns it.
func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	return settle(ctx, Transaction.Rollback)
}

// settle applies op to the context transaction if the current scope owns
// it. Borrowed transactions are left to their opener.
func settle(ctx context.Context, op func(Transaction, context.Context) error) error {
	scope, ok := txScopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.owned {
		return nil
	}
	return op(scope.tx, ctx)
}
