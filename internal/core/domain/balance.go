package domain

import "github.com/holiman/uint256"

// DomainID identifies one chain the solver operates on.
type DomainID string

// TickerHash identifies a fungible asset class settled across domains.
type TickerHash string

// BalanceMap holds amounts keyed by ticker then domain.
type BalanceMap map[TickerHash]map[DomainID]*uint256.Int

// Get returns the stored amount, or zero when absent. The result is shared with the map.
func (m BalanceMap) Get(ticker TickerHash, d DomainID) *uint256.Int {
	if byDomain, ok := m[ticker]; ok {
		if v, ok := byDomain[d]; ok && v != nil {
			return v
		}
	}
	return new(uint256.Int)
}

// Set stores a copy of amount.
func (m BalanceMap) Set(ticker TickerHash, d DomainID, amount *uint256.Int) {
	byDomain, ok := m[ticker]
	if !ok {
		byDomain = make(map[DomainID]*uint256.Int)
		m[ticker] = byDomain
	}
	byDomain[d] = AmountOrZero(amount).Clone()
}

// Clone returns a deep copy.
func (m BalanceMap) Clone() BalanceMap {
	out := make(BalanceMap, len(m))
	for ticker, byDomain := range m {
		inner := make(map[DomainID]*uint256.Int, len(byDomain))
		for d, v := range byDomain {
			inner[d] = AmountOrZero(v).Clone()
		}
		out[ticker] = inner
	}
	return out
}

// Ticker returns a copy of the per-domain amounts for one ticker.
func (m BalanceMap) Ticker(ticker TickerHash) map[DomainID]*uint256.Int {
	out := make(map[DomainID]*uint256.Int, len(m[ticker]))
	for d, v := range m[ticker] {
		out[d] = AmountOrZero(v).Clone()
	}
	return out
}
