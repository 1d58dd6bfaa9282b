package ports

import (
	"context"
	"time"

	"solver-rebalancer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EarmarkRepository defines persistence operations for earmarks.
// Methods accepting pgx.Tx run inside a transaction opened by DBTransactor.
type EarmarkRepository interface {
	// Create inserts a new earmark. A second active earmark for the same invoice
	// fails with a RACE-kind error from the storage uniqueness guard.
	Create(ctx context.Context, tx pgx.Tx, earmark *domain.Earmark) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Earmark, error)
	GetActiveByInvoice(ctx context.Context, invoiceID string) (*domain.Earmark, error)
	List(ctx context.Context, params EarmarkListParams) ([]domain.Earmark, error)
	// UpdateStatus moves an earmark from one status to another. It applies
	// only while the earmark is still in from; otherwise it returns a RACE error.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.EarmarkStatus) error

	// Sweeps. Each returns the ids it moved to EXPIRED.
	ExpireInitiating(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error)
	ExpireStale(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error)
	ExpireReadyWithoutActiveOperations(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error)
}

// EarmarkListParams filters earmark listings. Zero values mean "any".
type EarmarkListParams struct {
	Statuses  []domain.EarmarkStatus
	InvoiceID string
	Limit     int
}

// RebalanceOperationRepository defines persistence operations for rebalance legs.
type RebalanceOperationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, op *domain.RebalanceOperation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RebalanceOperation, error)
	List(ctx context.Context, params OperationListParams) ([]domain.RebalanceOperation, error)
	Update(ctx context.Context, tx pgx.Tx, id uuid.UUID, update OperationUpdate) error
	// MarkOrphaned flags still-active legs of the given earmarks.
	MarkOrphaned(ctx context.Context, tx pgx.Tx, earmarkIDs []uuid.UUID) (int64, error)
	// ExpireStale moves active legs created before cutoff to EXPIRED.
	ExpireStale(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error)
}

// OperationListParams filters operation listings. Zero values mean "any".
type OperationListParams struct {
	Statuses   []domain.OperationStatus
	EarmarkID  *uuid.UUID
	Unlinked   bool // only threshold-triggered legs (earmark_id IS NULL)
	TickerHash domain.TickerHash
	Limit      int
}

// OperationUpdate is a partial update. Receipts are merged into the stored map.
type OperationUpdate struct {
	Status           *domain.OperationStatus
	Receipts         map[domain.DomainID]domain.Receipt
	IsOrphaned       *bool
	NextLegStartedAt *time.Time
	// ClearNextLeg resets NextLegStartedAt and wins over it.
	ClearNextLeg bool
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
