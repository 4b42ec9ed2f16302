// Package tx provides the transaction abstraction for the swell orchestration
// core. Batch-mutating operations (batch creation, cancellation, the
// resubmission cancel+create pair) run inside a single transaction so that all
// rows exist or none do, independent of the storage backend in use.
package tx

import (
	"context"
)

// Tx represents an ongoing storage transaction.
type Tx interface {
	// Commit persists all changes made within the transaction.
	Commit() error
	// Rollback undoes all changes made within the transaction.
	Rollback() error
}

// TransactionManager manages the lifecycle of storage transactions.
type TransactionManager interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) (Tx, error)
}

// ctxKey is the context key under which the active transaction travels.
type ctxKey struct{}

// WithTx returns a context carrying the given transaction. Repositories
// resolve their executor from the context, so operations inside a managed
// block share one transaction without threading it explicitly.
func WithTx(ctx context.Context, t Tx) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext extracts the active transaction from the context, if any.
func FromContext(ctx context.Context) (Tx, bool) {
	t, ok := ctx.Value(ctxKey{}).(Tx)
	return t, ok
}

// RunInTransaction begins a transaction, runs fn with a context carrying it,
// and commits on success. Any error (or panic) from fn rolls the transaction
// back entirely; no partial rows persist.
func RunInTransaction(ctx context.Context, tm TransactionManager, fn func(ctx context.Context) error) (err error) {
	t, err := tm.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = t.Rollback()
			panic(r)
		}
	}()

	if err = fn(WithTx(ctx, t)); err != nil {
		_ = t.Rollback()
		return err
	}
	return t.Commit()
}
