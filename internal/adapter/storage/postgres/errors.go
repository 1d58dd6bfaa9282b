package postgres

import (
	"errors"
	"fmt"

	"solver-rebalancer/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func storageErr(op string, err error) error {
	return apperror.ErrStorage(fmt.Errorf("%s: %w", op, err))
}
