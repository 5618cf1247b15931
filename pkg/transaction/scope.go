package transaction

import (
	"context"
	"errors"
	"fmt"
)

// Run executes fn inside an ambient transaction. When ctx already carries
// an active transaction fn joins it and the outer scope decides the
// outcome. Otherwise a new transaction is started, committed when fn
// returns nil and rolled back when fn fails or panics.
func Run(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) (err error) {
	if _, ok := FromContext(ctx); ok {
		return fn(ctx)
	}

	tx := New(opts...)
	txCtx := NewContext(ctx, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	return tx.Commit(ctx)
}
