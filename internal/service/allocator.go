package service

import (
	"solver-rebalancer/internal/core/domain"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// AllocationRequest is one invoice's input to the allocator.
type AllocationRequest struct {
	InvoiceID  string
	TickerHash domain.TickerHash
	// Candidates are the origins to try, in priority order.
	Candidates []domain.DomainID
	// Required is the normalized amount the solver must supply per origin.
	Required map[domain.DomainID]*uint256.Int
}

// SplitIntentAllocator picks a single origin and splits an invoice across
// custodied liquidity on the configured domains.
type SplitIntentAllocator struct {
	domains         []domain.DomainID
	topN            int
	maxDestinations int
	log             zerolog.Logger
}

// NewSplitIntentAllocator creates an allocator over domains in priority order.
func NewSplitIntentAllocator(domains []domain.DomainID, topN, maxDestinations int, log zerolog.Logger) *SplitIntentAllocator {
	if topN > len(domains) {
		topN = len(domains)
	}
	return &SplitIntentAllocator{
		domains:         append([]domain.DomainID(nil), domains...),
		topN:            topN,
		maxDestinations: maxDestinations,
		log:             log,
	}
}

// Domains returns the configured domains in priority order.
func (a *SplitIntentAllocator) Domains() []domain.DomainID {
	return append([]domain.DomainID(nil), a.domains...)
}

// Allocate returns the best allocation for req against the tracker's current
// view, or an empty allocation when no candidate origin can fund it.
// The tracker is read, never written.
func (a *SplitIntentAllocator) Allocate(req AllocationRequest, tracker *ReservationTracker) *domain.Allocation {
	var best *domain.Allocation

	for _, origin := range req.Candidates {
		required, ok := req.Required[origin]
		if !ok || required == nil || required.IsZero() {
			a.log.Debug().
				Str("invoice_id", req.InvoiceID).
				Str("origin", string(origin)).
				Msg("no min amount quoted for origin")
			continue
		}

		spendable := tracker.Spendable(req.TickerHash, origin)
		if spendable.Lt(required) {
			a.log.Debug().
				Str("invoice_id", req.InvoiceID).
				Str("origin", string(origin)).
				Str("spendable", spendable.Dec()).
				Str("required", required.Dec()).
				Msg("insufficient spendable balance on origin")
			continue
		}

		topN := a.walk(req.TickerHash, origin, a.without(a.domains[:a.topN], origin), required, tracker)
		topN.TopNOnly = true
		if isBetter(topN, best) {
			best = topN
		}
		if topN.Total.Eq(required) {
			continue
		}

		all := a.walk(req.TickerHash, origin, a.without(a.domains, origin), required, tracker)
		all.TopNOnly = all.NonZeroCount() == 0 || a.withinTopN(all)
		if isBetter(all, best) {
			best = all
		}
	}

	if best == nil {
		return &domain.Allocation{Total: new(uint256.Int), Required: new(uint256.Int)}
	}
	return best
}

// walk greedily assigns min(available, remaining) to each target in order.
func (a *SplitIntentAllocator) walk(
	ticker domain.TickerHash,
	origin domain.DomainID,
	targets []domain.DomainID,
	required *uint256.Int,
	tracker *ReservationTracker,
) *domain.Allocation {
	alloc := &domain.Allocation{
		Origin:   origin,
		Total:    new(uint256.Int),
		Required: required.Clone(),
	}
	remaining := required.Clone()
	for _, d := range targets {
		if remaining.IsZero() {
			break
		}
		amount := domain.MinAmount(tracker.Available(ticker, d), remaining)
		if amount.IsZero() {
			continue
		}
		alloc.Entries = append(alloc.Entries, domain.AllocationEntry{Domain: d, Amount: amount})
		alloc.Total.Add(alloc.Total, amount)
		remaining.Sub(remaining, amount)
	}
	return alloc
}

func (a *SplitIntentAllocator) withinTopN(alloc *domain.Allocation) bool {
	top := make(map[domain.DomainID]bool, a.topN)
	for _, d := range a.domains[:a.topN] {
		top[d] = true
	}
	for _, e := range alloc.Entries {
		if !top[e.Domain] {
			return false
		}
	}
	return true
}

func (a *SplitIntentAllocator) without(list []domain.DomainID, origin domain.DomainID) []domain.DomainID {
	out := make([]domain.DomainID, 0, len(list))
	for _, d := range list {
		if d != origin {
			out = append(out, d)
		}
	}
	return out
}

// Destinations is the destination list attached to every intent from origin:
// all configured domains except origin, capped at the configured maximum.
func (a *SplitIntentAllocator) Destinations(origin domain.DomainID) []domain.DomainID {
	return a.capped(a.without(a.domains, origin))
}

// TopNDestinations is the destination list for an unallocated remainder.
func (a *SplitIntentAllocator) TopNDestinations(origin domain.DomainID) []domain.DomainID {
	return a.capped(a.without(a.domains[:a.topN], origin))
}

func (a *SplitIntentAllocator) capped(list []domain.DomainID) []domain.DomainID {
	if a.maxDestinations > 0 && len(list) > a.maxDestinations {
		return list[:a.maxDestinations]
	}
	return list
}

// isBetter ranks candidate allocations: any coverage beats none, then fewer
// non-zero entries, then top-N only, then higher total. Ties keep the incumbent.
func isBetter(candidate, incumbent *domain.Allocation) bool {
	if incumbent == nil {
		return true
	}
	cCount, iCount := candidate.NonZeroCount(), incumbent.NonZeroCount()
	if (cCount > 0) != (iCount > 0) {
		return cCount > 0
	}
	if cCount != iCount {
		return cCount < iCount
	}
	if candidate.TopNOnly != incumbent.TopNOnly {
		return candidate.TopNOnly
	}
	return candidate.Total.Gt(incumbent.Total)
}
