package database

import "context"

type txKey struct{}

// txScope holds the context transaction and whether the current scope owns
// it. Nested units of work reuse the outer transaction without committing
// it.
type txScope struct {
	tx    Transaction
	owned bool
}

func withTxScope(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, txScope{tx: tx, owned: owned})
}

func txScopeFrom(ctx context.Context) (txScope, bool) {
	scope, ok := ctx.Value(txKey{}).(txScope)
	return scope, ok && scope.tx != nil
}

// TxFromContext returns the context transaction, or nil when none is present.
func TxFromContext(ctx context.Context) Transaction {
	if scope, ok := txScopeFrom(ctx); ok {
		return scope.tx
	}
	return nil
}

// ExecutorFromContext returns the context transaction when one is present,
// otherwise the bare connection. Repositories call this so their queries
// join any transaction opened by the surrounding unit of work.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}
