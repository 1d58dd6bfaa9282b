package service

import (
	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/pkg/apperror"

	"github.com/holiman/uint256"
)

// ReservationTracker is the per-cycle ledger of custodied liquidity and
// solver spendable balance. It is owned by a single cycle and never shared.
type ReservationTracker struct {
	custodied domain.BalanceMap
	spendable domain.BalanceMap
}

// NewReservationTracker seeds a tracker with deep copies of both snapshots.
func NewReservationTracker(custodied, spendable domain.BalanceMap) *ReservationTracker {
	if custodied == nil {
		custodied = domain.BalanceMap{}
	}
	if spendable == nil {
		spendable = domain.BalanceMap{}
	}
	return &ReservationTracker{
		custodied: custodied.Clone(),
		spendable: spendable.Clone(),
	}
}

// Available returns the custodied liquidity still unreserved on d.
func (r *ReservationTracker) Available(ticker domain.TickerHash, d domain.DomainID) *uint256.Int {
	return r.custodied.Get(ticker, d).Clone()
}

// Spendable returns the solver balance still uncommitted on d.
func (r *ReservationTracker) Spendable(ticker domain.TickerHash, d domain.DomainID) *uint256.Int {
	return r.spendable.Get(ticker, d).Clone()
}

// Reserve takes amount of custodied liquidity on d.
func (r *ReservationTracker) Reserve(ticker domain.TickerHash, d domain.DomainID, amount *uint256.Int) error {
	return take(r.custodied, ticker, d, amount)
}

// Spend commits amount of solver balance on d.
func (r *ReservationTracker) Spend(ticker domain.TickerHash, d domain.DomainID, amount *uint256.Int) error {
	return take(r.spendable, ticker, d, amount)
}

// Hold withholds up to amount of spendable balance on d, e.g. funds an
// earmark has already claimed. It never fails.
func (r *ReservationTracker) Hold(ticker domain.TickerHash, d domain.DomainID, amount *uint256.Int) {
	r.spendable.Set(ticker, d, domain.SaturatingSub(r.spendable.Get(ticker, d), domain.AmountOrZero(amount)))
}

// Release returns previously held balance on d.
func (r *ReservationTracker) Release(ticker domain.TickerHash, d domain.DomainID, amount *uint256.Int) {
	sum := new(uint256.Int).Add(r.spendable.Get(ticker, d), domain.AmountOrZero(amount))
	r.spendable.Set(ticker, d, sum)
}

func take(m domain.BalanceMap, ticker domain.TickerHash, d domain.DomainID, amount *uint256.Int) error {
	amount = domain.AmountOrZero(amount)
	current := m.Get(ticker, d)
	if amount.Gt(current) {
		return apperror.ErrInsufficientLiquidity(string(ticker), string(d))
	}
	m.Set(ticker, d, new(uint256.Int).Sub(current, amount))
	return nil
}
