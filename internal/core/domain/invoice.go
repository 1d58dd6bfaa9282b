package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Invoice is a settlement invoice observed on the hub. Never mutated by the engine.
type Invoice struct {
	ID           string     `json:"id"`
	TickerHash   TickerHash `json:"ticker_hash"`
	Amount       string     `json:"amount"` // smallest unit, validated before use
	Owner        string     `json:"owner"`
	Origin       DomainID   `json:"origin"`
	Destinations []DomainID `json:"destinations"`
	EnqueuedAt   time.Time  `json:"enqueued_at"`
}

// ParsedAmount parses Amount; a zero amount is rejected.
func (i *Invoice) ParsedAmount() (*uint256.Int, error) {
	v, err := ParseAmount(i.Amount)
	if err != nil {
		return nil, err
	}
	if v.IsZero() {
		return nil, errZeroAmount
	}
	return v, nil
}

// SkipReason explains why an invoice produced no intents this cycle.
type SkipReason string

const (
	SkipInvalidAmount          SkipReason = "InvalidAmount"
	SkipOwnedBySolver          SkipReason = "OwnedBySolver"
	SkipNoSupportedDestination SkipReason = "NoSupportedDestination"
	SkipUnsupportedTicker      SkipReason = "UnsupportedTicker"
	SkipTooYoung               SkipReason = "TooYoung"
	SkipXERC20Covered          SkipReason = "XERC20Covered"
	SkipPendingPurchase        SkipReason = "PendingPurchaseRecordExists"
	SkipPendingEarmark         SkipReason = "PendingEarmark"
	SkipMinAmountsUnavailable  SkipReason = "MinAmountsUnavailable"
	SkipInsufficientBalance    SkipReason = "InsufficientBalance"
	SkipGroupAborted           SkipReason = "GroupAborted"
	SkipTransactionFailed      SkipReason = "TransactionFailed"
)
