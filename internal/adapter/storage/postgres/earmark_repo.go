package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const earmarkColumns = `id, invoice_id, designated_domain, ticker_hash, min_amount::text, status, created_at, updated_at`

// EarmarkRepo implements ports.EarmarkRepository.
type EarmarkRepo struct {
	pool Pool
	now  func() time.Time
}

// NewEarmarkRepo creates a new EarmarkRepo.
func NewEarmarkRepo(pool Pool) *EarmarkRepo {
	return &EarmarkRepo{pool: pool, now: time.Now}
}

// Create inserts a new earmark. The partial unique index on invoice_id turns a
// concurrent second claim into a RACE error.
func (r *EarmarkRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Earmark) error {
	query := `INSERT INTO earmarks (id, invoice_id, designated_domain, ticker_hash, min_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.InvoiceID, string(e.DesignatedDomain), string(e.TickerHash),
		domain.AmountOrZero(e.MinAmount).Dec(), string(e.Status), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateEarmark(e.InvoiceID)
		}
		return storageErr("insert earmark", err)
	}
	return nil
}

// GetByID fetches an earmark by UUID.
func (r *EarmarkRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Earmark, error) {
	query := `SELECT ` + earmarkColumns + ` FROM earmarks WHERE id = $1`
	return r.scanEarmark(r.pool.QueryRow(ctx, query, id))
}

// GetActiveByInvoice fetches the non-terminal earmark of an invoice, if any.
func (r *EarmarkRepo) GetActiveByInvoice(ctx context.Context, invoiceID string) (*domain.Earmark, error) {
	query := `SELECT ` + earmarkColumns + ` FROM earmarks
		WHERE invoice_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED', 'EXPIRED')`
	return r.scanEarmark(r.pool.QueryRow(ctx, query, invoiceID))
}

// List fetches earmarks matching the filter, newest first.
func (r *EarmarkRepo) List(ctx context.Context, params ports.EarmarkListParams) ([]domain.Earmark, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if len(params.Statuses) > 0 {
		statuses := make([]string, len(params.Statuses))
		for i, s := range params.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d::text[])", argIdx))
		args = append(args, statuses)
		argIdx++
	}
	if params.InvoiceID != "" {
		conditions = append(conditions, fmt.Sprintf("invoice_id = $%d", argIdx))
		args = append(args, params.InvoiceID)
		argIdx++
	}

	query := `SELECT ` + earmarkColumns + ` FROM earmarks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, params.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list earmarks", err)
	}
	defer rows.Close()

	var earmarks []domain.Earmark
	for rows.Next() {
		e, err := r.scanEarmark(rows)
		if err != nil {
			return nil, err
		}
		earmarks = append(earmarks, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate earmark rows", err)
	}
	return earmarks, nil
}

// UpdateStatus compare-and-sets an earmark's status. Zero rows means a
// concurrent run moved it first.
func (r *EarmarkRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.EarmarkStatus) error {
	query := `UPDATE earmarks SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	tag, err := tx.Exec(ctx, query, string(to), r.now().UTC(), id, string(from))
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrEarmarkChanged(id.String(), string(from))
		}
		return storageErr("update earmark status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrEarmarkChanged(id.String(), string(from))
	}
	return nil
}

// ExpireInitiating expires earmarks stuck in INITIATING since before cutoff.
func (r *EarmarkRepo) ExpireInitiating(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error) {
	query := `UPDATE earmarks SET status = 'EXPIRED', updated_at = $1
		WHERE status = 'INITIATING' AND created_at < $2
		RETURNING id`
	return r.expire(ctx, tx, "expire initiating earmarks", query, cutoff)
}

// ExpireStale expires non-terminal, non-READY earmarks created before cutoff.
func (r *EarmarkRepo) ExpireStale(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error) {
	query := `UPDATE earmarks SET status = 'EXPIRED', updated_at = $1
		WHERE status NOT IN ('READY', 'COMPLETED', 'CANCELLED', 'EXPIRED') AND created_at < $2
		RETURNING id`
	return r.expire(ctx, tx, "expire stale earmarks", query, cutoff)
}

// ExpireReadyWithoutActiveOperations expires READY earmarks created before cutoff
// that no longer have a PENDING or AWAITING_CALLBACK leg.
func (r *EarmarkRepo) ExpireReadyWithoutActiveOperations(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error) {
	query := `UPDATE earmarks e SET status = 'EXPIRED', updated_at = $1
		WHERE e.status = 'READY' AND e.created_at < $2
		AND NOT EXISTS (
			SELECT 1 FROM rebalance_operations o
			WHERE o.earmark_id = e.id AND o.status IN ('PENDING', 'AWAITING_CALLBACK')
		)
		RETURNING e.id`
	return r.expire(ctx, tx, "expire ready earmarks", query, cutoff)
}

func (r *EarmarkRepo) expire(ctx context.Context, tx pgx.Tx, op, query string, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, query, r.now().UTC(), cutoff)
	if err != nil {
		return nil, storageErr(op, err)
	}
	return collectIDs(rows, op)
}

// scanEarmark scans a single row into an Earmark.
func (r *EarmarkRepo) scanEarmark(row pgx.Row) (*domain.Earmark, error) {
	var (
		e                     domain.Earmark
		designated, ticker    string
		minAmount, statusText string
	)
	err := row.Scan(&e.ID, &e.InvoiceID, &designated, &ticker, &minAmount, &statusText, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr("scan earmark", err)
	}

	amount, err := domain.ParseAmount(minAmount)
	if err != nil {
		return nil, storageErr("decode earmark amount", err)
	}
	e.DesignatedDomain = domain.DomainID(designated)
	e.TickerHash = domain.TickerHash(ticker)
	e.MinAmount = amount
	e.Status = domain.EarmarkStatus(statusText)
	return &e, nil
}

func collectIDs(rows pgx.Rows, op string) ([]uuid.UUID, error) {
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return ids, nil
}
