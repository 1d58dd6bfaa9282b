package memory

import (
	"context"
	"sync"
	"time"

	"solver-rebalancer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store keeps earmarks and rebalance legs in process memory.
// Writes apply immediately; the transaction handed out is a no-op.
type Store struct {
	mu         sync.RWMutex
	earmarks   map[uuid.UUID]*domain.Earmark
	operations map[uuid.UUID]*domain.RebalanceOperation
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		earmarks:   make(map[uuid.UUID]*domain.Earmark),
		operations: make(map[uuid.UUID]*domain.RebalanceOperation),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Earmarks returns the earmark repository view of the store.
func (s *Store) Earmarks() *EarmarkRepo {
	return &EarmarkRepo{store: s}
}

// Operations returns the rebalance operation repository view of the store.
func (s *Store) Operations() *OperationRepo {
	return &OperationRepo{store: s}
}

// Transactor returns a ports.DBTransactor handing out no-op transactions.
func (s *Store) Transactor() *Transactor {
	return &Transactor{}
}

// Transactor implements ports.DBTransactor for the memory store.
type Transactor struct{}

// Begin returns a no-op transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// HealthCheck implements ports.HealthChecker; memory is always reachable.
type HealthCheck struct{}

func (HealthCheck) Ping(ctx context.Context) error { return nil }
func (HealthCheck) Name() string                   { return "memory" }

// noopTx is a no-op pgx.Tx implementation.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

func cloneEarmark(e *domain.Earmark) *domain.Earmark {
	c := *e
	c.MinAmount = domain.AmountOrZero(e.MinAmount).Clone()
	return &c
}

func cloneOperation(op *domain.RebalanceOperation) *domain.RebalanceOperation {
	c := *op
	c.Amount = domain.AmountOrZero(op.Amount).Clone()
	if op.EarmarkID != nil {
		id := *op.EarmarkID
		c.EarmarkID = &id
	}
	if op.NextLegStartedAt != nil {
		at := *op.NextLegStartedAt
		c.NextLegStartedAt = &at
	}
	c.Receipts = make(map[domain.DomainID]domain.Receipt, len(op.Receipts))
	for d, r := range op.Receipts {
		c.Receipts[d] = r
	}
	return &c
}
