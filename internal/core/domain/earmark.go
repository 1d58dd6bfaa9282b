package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// EarmarkStatus is the lifecycle state of an earmark.
type EarmarkStatus string

const (
	EarmarkStatusInitiating EarmarkStatus = "INITIATING"
	EarmarkStatusPending    EarmarkStatus = "PENDING"
	EarmarkStatusReady      EarmarkStatus = "READY"
	EarmarkStatusCompleted  EarmarkStatus = "COMPLETED"
	EarmarkStatusCancelled  EarmarkStatus = "CANCELLED"
	EarmarkStatusExpired    EarmarkStatus = "EXPIRED"
)

// TerminalEarmarkStatuses are excluded from the active-earmark uniqueness rule.
var TerminalEarmarkStatuses = []EarmarkStatus{
	EarmarkStatusCompleted,
	EarmarkStatusCancelled,
	EarmarkStatusExpired,
}

var earmarkTransitions = map[EarmarkStatus][]EarmarkStatus{
	EarmarkStatusInitiating: {EarmarkStatusPending, EarmarkStatusReady, EarmarkStatusCancelled, EarmarkStatusExpired},
	EarmarkStatusPending:    {EarmarkStatusReady, EarmarkStatusCancelled, EarmarkStatusExpired},
	EarmarkStatusReady:      {EarmarkStatusCompleted, EarmarkStatusCancelled, EarmarkStatusExpired},
}

// IsTerminal reports whether no further transition is allowed.
func (s EarmarkStatus) IsTerminal() bool {
	return s == EarmarkStatusCompleted || s == EarmarkStatusCancelled || s == EarmarkStatusExpired
}

// CanTransitionTo reports whether s -> next is a legal lifecycle step.
func (s EarmarkStatus) CanTransitionTo(next EarmarkStatus) bool {
	for _, allowed := range earmarkTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s EarmarkStatus) Valid() bool {
	switch s {
	case EarmarkStatusInitiating, EarmarkStatusPending, EarmarkStatusReady,
		EarmarkStatusCompleted, EarmarkStatusCancelled, EarmarkStatusExpired:
		return true
	}
	return false
}

// Earmark reserves liquidity being moved toward DesignatedDomain for one invoice.
type Earmark struct {
	ID               uuid.UUID     `json:"id"`
	InvoiceID        string        `json:"invoice_id"`
	DesignatedDomain DomainID      `json:"designated_domain"`
	TickerHash       TickerHash    `json:"ticker_hash"`
	MinAmount        *uint256.Int  `json:"min_amount"` // normalized
	Status           EarmarkStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsTerminal reports whether the earmark is finished.
func (e *Earmark) IsTerminal() bool {
	return e.Status.IsTerminal()
}
