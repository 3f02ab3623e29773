package tx

import (
	"context"
	"database/sql"
	"fmt"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner executes fn atomically when the backing store supports it. Services
// run their commit phase through a Runner so an entity update and its trail
// rows land together.
type Runner func(ctx context.Context, fn func(context.Context) error) error

// InProcess is the Runner for memory-backed stores, where the service mutex
// already serializes the commit phase.
func InProcess() Runner {
	return func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
}

// Postgres returns a Runner committing fn inside one database transaction.
func Postgres(db *sql.DB) Runner {
	return func(ctx context.Context, fn func(context.Context) error) error {
		return Run(ctx, db, fn)
	}
}

// Run executes fn inside a transaction placed in the context, committing on nil
// and rolling back otherwise. Mutating ledger operations use this so the entity
// record, secondary indexes and audit rows commit or abort together.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if _, ok := From(ctx); ok {
		// Already inside a transaction; join it.
		return fn(ctx)
	}
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
