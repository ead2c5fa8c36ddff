package core

import (
	"context"
	"errors"
	"fmt"
)

type transactionKey struct{}

// WithTransaction returns a context carrying tx. Drivers run every
// operation issued with that context inside tx.
func WithTransaction(ctx context.Context, tx Transaction) context.Context {
	return context.WithValue(ctx, transactionKey{}, tx)
}

// TransactionFrom returns the transaction carried by ctx, or nil.
func TransactionFrom(ctx context.Context) Transaction {
	if v, ok := ctx.Value(transactionKey{}).(Transaction); ok {
		return v
	}
	return nil
}

type TransactionFunc func(txCtx context.Context) error

// RunTransaction runs fn inside a transaction of driver: committed when fn
// returns nil, rolled back when it fails or panics. A context that already
// carries a transaction is reused as is, so nested calls join the outer one.
//
//	err := core.RunTransaction(ctx, driver, func(txCtx context.Context) error {
//	    return funcionarios.Update(txCtx, cond, core.Changes{"ativo": false})
//	})
func RunTransaction(ctx context.Context, driver Driver, fn TransactionFunc) (err error) {
	if TransactionFrom(ctx) != nil {
		return fn(ctx)
	}
	tx, err := driver.Transaction(ctx)
	if err != nil {
		return fmt.Errorf("golem: begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(WithTransaction(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("golem: rollback: %w", rbErr))
		}
		return err
	}
	return tx.Commit(ctx)
}
