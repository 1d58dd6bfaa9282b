package domain

import "github.com/holiman/uint256"

// Leg is one hop of a configured route.
type Leg struct {
	Bridge      BridgeKind
	Origin      DomainID
	Destination DomainID
}

// RebalanceRoute moves a ticker from Origin to Destination through Legs.
// Maximum and Reserve are normalized amounts; a nil Maximum disables threshold rebalancing.
type RebalanceRoute struct {
	TickerHash  TickerHash
	Origin      DomainID
	Destination DomainID
	Maximum     *uint256.Int
	Reserve     *uint256.Int
	SlippageBps uint64
	Legs        []Leg
}

// FirstLeg returns the hop that leaves Origin.
func (r RebalanceRoute) FirstLeg() Leg {
	return r.Legs[0]
}

// RouteTable is the set of configured routes.
type RouteTable []RebalanceRoute

// RoutesTo returns routes for ticker ending at destination, in configuration order.
func (t RouteTable) RoutesTo(ticker TickerHash, destination DomainID) []RebalanceRoute {
	var out []RebalanceRoute
	for _, r := range t {
		if r.TickerHash == ticker && r.Destination == destination {
			out = append(out, r)
		}
	}
	return out
}

// NextLeg finds the hop following (bridge, origin -> destination) for ticker.
// Legs are chained by domain continuity: the returned leg starts where the current one ends.
func (t RouteTable) NextLeg(ticker TickerHash, bridge BridgeKind, origin, destination DomainID) (Leg, bool) {
	for _, r := range t {
		if r.TickerHash != ticker {
			continue
		}
		for i := 0; i < len(r.Legs)-1; i++ {
			cur := r.Legs[i]
			if cur.Bridge == bridge && cur.Origin == origin && cur.Destination == destination {
				return r.Legs[i+1], true
			}
		}
	}
	return Leg{}, false
}

// FinalDestination returns the destination of the route containing the given hop, or the hop's own destination.
func (t RouteTable) FinalDestination(ticker TickerHash, bridge BridgeKind, origin, destination DomainID) DomainID {
	for _, r := range t {
		if r.TickerHash != ticker {
			continue
		}
		for _, l := range r.Legs {
			if l.Bridge == bridge && l.Origin == origin && l.Destination == destination {
				return r.Destination
			}
		}
	}
	return destination
}
