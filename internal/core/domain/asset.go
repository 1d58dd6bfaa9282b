package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Asset describes one ticker and where its token lives on each domain.
type Asset struct {
	TickerHash TickerHash
	Symbol     string
	Decimals   uint8
	Addresses  map[DomainID]common.Address
	XERC20     map[DomainID]bool
}

// AssetBook indexes configured assets by ticker hash.
type AssetBook map[TickerHash]Asset

// NormalizeTicker lower-cases a ticker hash.
func NormalizeTicker(s string) TickerHash {
	return TickerHash(strings.ToLower(strings.TrimSpace(s)))
}

// Address returns the token address of ticker on d.
func (b AssetBook) Address(ticker TickerHash, d DomainID) (common.Address, bool) {
	asset, ok := b[ticker]
	if !ok {
		return common.Address{}, false
	}
	addr, ok := asset.Addresses[d]
	return addr, ok
}

// Decimals returns the native decimals of ticker.
func (b AssetBook) Decimals(ticker TickerHash) (uint8, bool) {
	asset, ok := b[ticker]
	return asset.Decimals, ok
}

// Supports reports whether ticker is configured at all.
func (b AssetBook) Supports(ticker TickerHash) bool {
	_, ok := b[ticker]
	return ok
}

// CoveredByXERC20 reports whether every domain in ds has an XERC20 fast path for ticker.
func (b AssetBook) CoveredByXERC20(ticker TickerHash, ds []DomainID) bool {
	asset, ok := b[ticker]
	if !ok || len(ds) == 0 {
		return false
	}
	for _, d := range ds {
		if !asset.XERC20[d] {
			return false
		}
	}
	return true
}

// Tickers lists the configured ticker hashes.
func (b AssetBook) Tickers() []TickerHash {
	out := make([]TickerHash, 0, len(b))
	for t := range b {
		out = append(out, t)
	}
	return out
}
