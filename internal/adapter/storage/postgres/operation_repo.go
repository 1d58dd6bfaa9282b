package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const operationColumns = `id, earmark_id, origin_domain, destination_domain, ticker_hash, amount::text,
	bridge, status, recipient, tx_receipts::text, is_orphaned, next_leg_started_at, created_at, updated_at`

// OperationRepo implements ports.RebalanceOperationRepository.
type OperationRepo struct {
	pool Pool
	now  func() time.Time
}

// NewOperationRepo creates a new OperationRepo.
func NewOperationRepo(pool Pool) *OperationRepo {
	return &OperationRepo{pool: pool, now: time.Now}
}

// Create inserts a new rebalance leg within a database transaction.
func (r *OperationRepo) Create(ctx context.Context, tx pgx.Tx, op *domain.RebalanceOperation) error {
	receipts, err := encodeReceipts(op.Receipts)
	if err != nil {
		return storageErr("encode receipts", err)
	}

	query := `INSERT INTO rebalance_operations (id, earmark_id, origin_domain, destination_domain, ticker_hash, amount,
		bridge, status, recipient, tx_receipts, is_orphaned, next_leg_started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, query,
		op.ID, op.EarmarkID, string(op.Origin), string(op.Destination), string(op.TickerHash),
		domain.AmountOrZero(op.Amount).Dec(), string(op.Bridge), string(op.Status), op.Recipient.Hex(),
		receipts, op.IsOrphaned, op.NextLegStartedAt, op.CreatedAt, op.UpdatedAt,
	)
	if err != nil {
		return storageErr("insert rebalance operation", err)
	}
	return nil
}

// GetByID fetches a rebalance leg by UUID.
func (r *OperationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RebalanceOperation, error) {
	query := `SELECT ` + operationColumns + ` FROM rebalance_operations WHERE id = $1`
	return r.scanOperation(r.pool.QueryRow(ctx, query, id))
}

// List fetches legs matching the filter, oldest first.
func (r *OperationRepo) List(ctx context.Context, params ports.OperationListParams) ([]domain.RebalanceOperation, error) {
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
	if params.EarmarkID != nil {
		conditions = append(conditions, fmt.Sprintf("earmark_id = $%d", argIdx))
		args = append(args, *params.EarmarkID)
		argIdx++
	}
	if params.Unlinked {
		conditions = append(conditions, "earmark_id IS NULL")
	}
	if params.TickerHash != "" {
		conditions = append(conditions, fmt.Sprintf("ticker_hash = $%d", argIdx))
		args = append(args, string(params.TickerHash))
		argIdx++
	}

	query := `SELECT ` + operationColumns + ` FROM rebalance_operations`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC"
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, params.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list rebalance operations", err)
	}
	defer rows.Close()

	var ops []domain.RebalanceOperation
	for rows.Next() {
		op, err := r.scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate rebalance operation rows", err)
	}
	return ops, nil
}

// Update applies a partial update. Receipts are merged into the stored JSONB map.
// ClearNextLeg nulls next_leg_started_at regardless of NextLegStartedAt.
func (r *OperationRepo) Update(ctx context.Context, tx pgx.Tx, id uuid.UUID, update ports.OperationUpdate) error {
	receipts, err := encodeReceipts(update.Receipts)
	if err != nil {
		return storageErr("encode receipts", err)
	}

	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}

	query := `UPDATE rebalance_operations SET
		status = COALESCE($1, status),
		tx_receipts = tx_receipts || $2::jsonb,
		is_orphaned = COALESCE($3, is_orphaned),
		next_leg_started_at = CASE WHEN $4 THEN NULL ELSE COALESCE($5, next_leg_started_at) END,
		updated_at = $6
		WHERE id = $7`

	tag, err := tx.Exec(ctx, query, status, receipts, update.IsOrphaned,
		update.ClearNextLeg, update.NextLegStartedAt, r.now().UTC(), id)
	if err != nil {
		return storageErr("update rebalance operation", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound("Rebalance operation")
	}
	return nil
}

// MarkOrphaned flags the still-active legs of the given earmarks.
func (r *OperationRepo) MarkOrphaned(ctx context.Context, tx pgx.Tx, earmarkIDs []uuid.UUID) (int64, error) {
	if len(earmarkIDs) == 0 {
		return 0, nil
	}
	ids := make([]string, len(earmarkIDs))
	for i, id := range earmarkIDs {
		ids[i] = id.String()
	}

	query := `UPDATE rebalance_operations SET is_orphaned = TRUE, updated_at = $1
		WHERE earmark_id = ANY($2::text[]::uuid[]) AND status IN ('PENDING', 'AWAITING_CALLBACK')`

	tag, err := tx.Exec(ctx, query, r.now().UTC(), ids)
	if err != nil {
		return 0, storageErr("mark operations orphaned", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireStale moves active legs created before cutoff to EXPIRED.
func (r *OperationRepo) ExpireStale(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error) {
	query := `UPDATE rebalance_operations SET status = 'EXPIRED', updated_at = $1
		WHERE status IN ('PENDING', 'AWAITING_CALLBACK') AND created_at < $2
		RETURNING id`

	rows, err := tx.Query(ctx, query, r.now().UTC(), cutoff)
	if err != nil {
		return nil, storageErr("expire stale operations", err)
	}
	return collectIDs(rows, "expire stale operations")
}

func (r *OperationRepo) scanOperation(row pgx.Row) (*domain.RebalanceOperation, error) {
	var (
		op                                domain.RebalanceOperation
		origin, destination, ticker       string
		amount, bridge, status, recipient string
		receipts                          string
	)
	err := row.Scan(
		&op.ID, &op.EarmarkID, &origin, &destination, &ticker, &amount,
		&bridge, &status, &recipient, &receipts, &op.IsOrphaned, &op.NextLegStartedAt, &op.CreatedAt, &op.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr("scan rebalance operation", err)
	}

	parsed, err := domain.ParseAmount(amount)
	if err != nil {
		return nil, storageErr("decode operation amount", err)
	}
	op.Receipts = make(map[domain.DomainID]domain.Receipt)
	if receipts != "" {
		if err := json.Unmarshal([]byte(receipts), &op.Receipts); err != nil {
			return nil, storageErr("decode operation receipts", err)
		}
	}

	op.Origin = domain.DomainID(origin)
	op.Destination = domain.DomainID(destination)
	op.TickerHash = domain.TickerHash(ticker)
	op.Amount = parsed
	op.Bridge = domain.BridgeKind(bridge)
	op.Status = domain.OperationStatus(status)
	op.Recipient = common.HexToAddress(recipient)
	return &op, nil
}

func encodeReceipts(receipts map[domain.DomainID]domain.Receipt) (string, error) {
	if len(receipts) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(receipts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
