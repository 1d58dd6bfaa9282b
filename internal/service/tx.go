package service

import (
	"context"
	"fmt"

	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

// withTransaction runs fn inside one storage transaction. fn's error is
// returned unchanged; begin and commit failures are storage errors.
func withTransaction(ctx context.Context, transactor ports.DBTransactor, fn func(tx pgx.Tx) error) error {
	tx, err := transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
