package ports

import (
	"context"
	"time"

	"solver-rebalancer/internal/core/domain"

	"github.com/google/uuid"
)

// TokenService handles admin JWT operations.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
	TokenID string
}

// EarmarkService is the earmark manager.
type EarmarkService interface {
	CreateEarmark(ctx context.Context, req CreateEarmarkRequest) (*domain.Earmark, error)
	GetActiveEarmark(ctx context.Context, invoiceID string) (*domain.Earmark, error)
	GetEarmark(ctx context.Context, id uuid.UUID) (*domain.Earmark, error)
	ListEarmarks(ctx context.Context, params EarmarkListParams) ([]domain.Earmark, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EarmarkStatus, reason string) error
}

// CreateEarmarkRequest holds the input for a new earmark.
type CreateEarmarkRequest struct {
	InvoiceID        string
	DesignatedDomain domain.DomainID
	TickerHash       domain.TickerHash
	MinAmount        string // normalized, base 10
}

// OperationQueryService exposes rebalance legs to the admin API.
type OperationQueryService interface {
	ListOperations(ctx context.Context, params OperationListParams) ([]domain.RebalanceOperation, error)
}

// CycleRunner runs one polling cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*CycleReport, error)
}

// CycleReport summarizes one polling cycle.
type CycleReport struct {
	StartedAt          time.Time
	Duration           time.Duration
	InvoicesSeen       int
	IntentsEmitted     int
	Skipped            map[domain.SkipReason]int
	EarmarksCreated    int
	OperationsCreated  int
	OperationsAdvanced int
	Swept              SweepReport
}

// SweepReport lists the records forced terminal by one sweep.
type SweepReport struct {
	ExpiredInitiating []uuid.UUID
	ExpiredStale      []uuid.UUID
	ExpiredReady      []uuid.UUID
	OrphanedOps       int64
	ExpiredOperations []uuid.UUID
}

// Total counts forced transitions.
func (r SweepReport) Total() int {
	return len(r.ExpiredInitiating) + len(r.ExpiredStale) + len(r.ExpiredReady) + len(r.ExpiredOperations)
}

// Alerter reports events an operator must look at. Delivery is best effort
// and never blocks the caller.
type Alerter interface {
	Alert(ctx context.Context, alert Alert)
}

// Alert is one operator-facing event.
type Alert struct {
	Event   string            `json:"event"`
	Subject string            `json:"subject"`
	Reason  string            `json:"reason"`
	Fields  map[string]string `json:"fields,omitempty"`
	At      time.Time         `json:"at"`
}

// Alert events.
const (
	AlertEarmarkCancelled = "EARMARK_CANCELLED"
	AlertRecordsSwept     = "RECORDS_SWEPT"
	AlertCycleFatal       = "CYCLE_FATAL"
	AlertOperatorAction   = "OPERATOR_ACTION"
)
