package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// AllocationEntry is the amount settled against one destination's custodied liquidity.
type AllocationEntry struct {
	Domain DomainID
	Amount *uint256.Int
}

// Allocation is the allocator's transient answer for one invoice.
// Entries keep walk order so the emitted intents are deterministic.
type Allocation struct {
	Origin   DomainID
	Entries  []AllocationEntry
	Total    *uint256.Int
	Required *uint256.Int
	TopNOnly bool
}

// IsEmpty reports whether no origin could be used.
func (a *Allocation) IsEmpty() bool {
	return a == nil || a.Origin == ""
}

// NonZeroCount counts entries with a positive amount.
func (a *Allocation) NonZeroCount() int {
	n := 0
	for _, e := range a.Entries {
		if e.Amount != nil && !e.Amount.IsZero() {
			n++
		}
	}
	return n
}

// Remainder is the required amount the entries leave uncovered.
func (a *Allocation) Remainder() *uint256.Int {
	return SaturatingSub(AmountOrZero(a.Required), AmountOrZero(a.Total))
}

// PurchaseIntent is one fulfillment intent handed to the intent submitter.
type PurchaseIntent struct {
	InvoiceID    string
	TickerHash   TickerHash
	Origin       DomainID
	Destinations []DomainID
	Recipient    common.Address
	InputAsset   common.Address
	Amount       *uint256.Int // native units
	MaxFee       uint32
	TTL          uint64
	Data         hexutil.Bytes
}

// Purchase records submitted intents for an invoice until the hub settles it.
type Purchase struct {
	InvoiceID       string      `json:"invoice_id"`
	TickerHash      TickerHash  `json:"ticker_hash"`
	Origin          DomainID    `json:"origin"`
	Destinations    []DomainID  `json:"destinations"`
	Amount          string      `json:"amount"`
	Intents         int         `json:"intents,omitempty"`
	TransactionHash common.Hash `json:"transaction_hash"`
	CreatedAt       time.Time   `json:"created_at"`
}

// SpendsFrom reports whether the purchase was funded from d for ticker.
// A later invoice on the same ticker must not commit more liquidity from d
// while this purchase is outstanding.
func (p *Purchase) SpendsFrom(ticker TickerHash, d DomainID) bool {
	return p.TickerHash == ticker && p.Origin == d
}
