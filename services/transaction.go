package services

import (
	"context"

	"github.com/pizza-app/auth-service/repositories"
)

// WithTransaction runs fn inside txMgr.InTransaction. Repositories called with
// the ctx handed to fn share the transaction.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) error) error {
	return txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		return fn(txCtx)
	})
}

// WithTransactionResult is WithTransaction for units of work that produce a value.
// The zero value is returned whenever the transaction does not commit.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		var err error
		result, err = fn(txCtx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
