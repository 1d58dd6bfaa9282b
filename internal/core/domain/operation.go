package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// OperationStatus is the lifecycle state of one rebalance leg.
type OperationStatus string

const (
	OperationStatusPending          OperationStatus = "PENDING"
	OperationStatusAwaitingCallback OperationStatus = "AWAITING_CALLBACK"
	OperationStatusCompleted        OperationStatus = "COMPLETED"
	OperationStatusFailed           OperationStatus = "FAILED"
	OperationStatusExpired          OperationStatus = "EXPIRED"
)

// ActiveOperationStatuses are the statuses the state machine still drives.
var ActiveOperationStatuses = []OperationStatus{
	OperationStatusPending,
	OperationStatusAwaitingCallback,
}

var operationTransitions = map[OperationStatus][]OperationStatus{
	OperationStatusPending:          {OperationStatusAwaitingCallback, OperationStatusFailed, OperationStatusExpired},
	OperationStatusAwaitingCallback: {OperationStatusCompleted, OperationStatusFailed, OperationStatusExpired},
}

// IsTerminal reports whether no further transition is allowed.
func (s OperationStatus) IsTerminal() bool {
	return s == OperationStatusCompleted || s == OperationStatusFailed || s == OperationStatusExpired
}

// CanTransitionTo reports whether s -> next is a legal lifecycle step.
func (s OperationStatus) CanTransitionTo(next OperationStatus) bool {
	for _, allowed := range operationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s OperationStatus) Valid() bool {
	switch s {
	case OperationStatusPending, OperationStatusAwaitingCallback,
		OperationStatusCompleted, OperationStatusFailed, OperationStatusExpired:
		return true
	}
	return false
}

// RebalanceOperation is one leg of a (possibly multi-leg) transfer.
// EarmarkID is nil for threshold-triggered legs.
type RebalanceOperation struct {
	ID          uuid.UUID            `json:"id"`
	EarmarkID   *uuid.UUID           `json:"earmark_id,omitempty"`
	Origin      DomainID             `json:"origin_domain"`
	Destination DomainID             `json:"destination_domain"`
	TickerHash  TickerHash           `json:"ticker_hash"`
	Amount      *uint256.Int         `json:"amount"` // native units
	Bridge      BridgeKind           `json:"bridge"`
	Status      OperationStatus      `json:"status"`
	Recipient   common.Address       `json:"recipient"`
	Receipts    map[DomainID]Receipt `json:"tx_receipts"`
	IsOrphaned  bool                 `json:"is_orphaned"`
	// NextLegStartedAt is set before the following hop is submitted and
	// cleared when that submission fails without reaching the chain.
	NextLegStartedAt *time.Time `json:"next_leg_started_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the leg is finished.
func (o *RebalanceOperation) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// Receipt returns the stored receipt for d.
func (o *RebalanceOperation) Receipt(d DomainID) (Receipt, bool) {
	r, ok := o.Receipts[d]
	return r, ok
}

// OriginReceipt returns the receipt of the bridge transaction on the origin domain.
func (o *RebalanceOperation) OriginReceipt() (Receipt, bool) {
	return o.Receipt(o.Origin)
}

// Route builds the bridge route for this leg.
func (o *RebalanceOperation) Route(asset common.Address) Route {
	return Route{Asset: asset, Origin: o.Origin, Destination: o.Destination}
}

// Receipt is the persisted summary of a mined transaction.
type Receipt struct {
	TransactionHash common.Hash    `json:"transaction_hash"`
	From            common.Address `json:"from"`
	To              common.Address `json:"to"`
	BlockNumber     uint64         `json:"block_number"`
	Status          uint64         `json:"status"`
	Memo            TxMemo         `json:"memo,omitempty"`
	Logs            []ReceiptLog   `json:"logs,omitempty"`
}

// Succeeded reports whether the transaction executed without reverting.
func (r Receipt) Succeeded() bool {
	return r.Status == 1
}

// ReceiptLog is one event emitted by a mined transaction.
type ReceiptLog struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}
