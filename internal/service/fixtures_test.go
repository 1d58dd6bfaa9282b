package service

import (
	"fmt"

	"solver-rebalancer/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const testTicker domain.TickerHash = "0xusdc"

var testDomains = []domain.DomainID{"1", "10", "8453", "42161"}

func amt(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func balancesOf(ticker domain.TickerHash, values map[domain.DomainID]uint64) domain.BalanceMap {
	m := domain.BalanceMap{}
	for d, v := range values {
		m.Set(ticker, d, amt(v))
	}
	return m
}

func requiredEverywhere(v uint64) map[domain.DomainID]*uint256.Int {
	out := make(map[domain.DomainID]*uint256.Int, len(testDomains))
	for _, d := range testDomains {
		out[d] = amt(v)
	}
	return out
}

// testAssets uses 18 decimals so native and normalized amounts coincide.
func testAssets() domain.AssetBook {
	addrs := make(map[domain.DomainID]common.Address, len(testDomains))
	for i, d := range testDomains {
		addrs[d] = common.HexToAddress(fmt.Sprintf("0x%040x", 0xa0+i))
	}
	return domain.AssetBook{
		testTicker: {
			TickerHash: testTicker,
			Symbol:     "USDC",
			Decimals:   18,
			Addresses:  addrs,
		},
	}
}
