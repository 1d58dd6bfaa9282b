package config

import (
	"fmt"
	"strings"

	"solver-rebalancer/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Group policies applied when the oldest invoice of a ticker group cannot be allocated.
const (
	GroupPolicyAbort    = "abort"
	GroupPolicyContinue = "continue"
)

// DomainIDs returns the configured domains in priority order.
func (s SolverConfig) DomainIDs() []domain.DomainID {
	out := make([]domain.DomainID, 0, len(s.Domains))
	for _, d := range s.Domains {
		out = append(out, domain.DomainID(strings.TrimSpace(d)))
	}
	return out
}

// Owner returns the solver's address.
func (s SolverConfig) Owner() common.Address {
	return common.HexToAddress(s.OwnAddress)
}

// AbortOnOldest reports whether a failed oldest invoice stops its ticker group.
func (s SolverConfig) AbortOnOldest() bool {
	return s.GroupPolicy != GroupPolicyContinue
}

// AssetBook converts the asset list into a lookup table.
func (s SolverConfig) AssetBook() (domain.AssetBook, error) {
	book := make(domain.AssetBook, len(s.Assets))
	for _, a := range s.Assets {
		ticker := domain.NormalizeTicker(a.TickerHash)
		if ticker == "" {
			return nil, fmt.Errorf("asset %q: ticker_hash is required", a.Symbol)
		}
		if _, dup := book[ticker]; dup {
			return nil, fmt.Errorf("asset %q: duplicate ticker_hash %s", a.Symbol, ticker)
		}

		asset := domain.Asset{
			TickerHash: ticker,
			Symbol:     a.Symbol,
			Decimals:   a.Decimals,
			Addresses:  make(map[domain.DomainID]common.Address, len(a.Addresses)),
			XERC20:     make(map[domain.DomainID]bool, len(a.XERC20Domains)),
		}
		for d, addr := range a.Addresses {
			if !common.IsHexAddress(addr) {
				return nil, fmt.Errorf("asset %q: invalid address %q on domain %s", a.Symbol, addr, d)
			}
			asset.Addresses[domain.DomainID(d)] = common.HexToAddress(addr)
		}
		for _, d := range a.XERC20Domains {
			asset.XERC20[domain.DomainID(d)] = true
		}
		book[ticker] = asset
	}
	return book, nil
}

// RouteTable converts the configured routes, chaining leg origins by domain continuity.
func (r RebalanceConfig) RouteTable() (domain.RouteTable, error) {
	table := make(domain.RouteTable, 0, len(r.Routes))
	for i, rc := range r.Routes {
		route, err := rc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		table = append(table, route)
	}
	return table, nil
}

func (rc RouteConfig) toDomain() (domain.RebalanceRoute, error) {
	route := domain.RebalanceRoute{
		TickerHash:  domain.NormalizeTicker(rc.TickerHash),
		Origin:      domain.DomainID(rc.Origin),
		Destination: domain.DomainID(rc.Destination),
		SlippageBps: rc.SlippageBps,
	}
	if route.TickerHash == "" || route.Origin == "" || route.Destination == "" {
		return route, fmt.Errorf("ticker_hash, origin and destination are required")
	}
	if route.Origin == route.Destination {
		return route, fmt.Errorf("origin and destination are both %s", route.Origin)
	}
	if rc.SlippageBps > 10_000 {
		return route, fmt.Errorf("slippage_bps %d exceeds 10000", rc.SlippageBps)
	}

	legs := rc.Legs
	if len(legs) == 0 && rc.Bridge != "" {
		legs = []LegConfig{{Bridge: rc.Bridge, Destination: rc.Destination}}
	}
	if len(legs) == 0 {
		return route, fmt.Errorf("no legs configured")
	}
	from := route.Origin
	for _, l := range legs {
		if l.Bridge == "" || l.Destination == "" {
			return route, fmt.Errorf("leg from %s: bridge and destination are required", from)
		}
		route.Legs = append(route.Legs, domain.Leg{
			Bridge:      domain.BridgeKind(l.Bridge),
			Origin:      from,
			Destination: domain.DomainID(l.Destination),
		})
		from = domain.DomainID(l.Destination)
	}
	if from != route.Destination {
		return route, fmt.Errorf("legs end at %s, not at destination %s", from, route.Destination)
	}

	var err error
	if rc.Maximum != "" {
		if route.Maximum, err = uint256.FromDecimal(rc.Maximum); err != nil {
			return route, fmt.Errorf("maximum: %w", err)
		}
	}
	route.Reserve = new(uint256.Int)
	if rc.Reserve != "" {
		if route.Reserve, err = uint256.FromDecimal(rc.Reserve); err != nil {
			return route, fmt.Errorf("reserve: %w", err)
		}
	}
	return route, nil
}
