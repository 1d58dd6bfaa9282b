package service

import (
	"math/rand"
	"testing"

	"solver-rebalancer/internal/core/domain"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(topN, maxDest int) *SplitIntentAllocator {
	return NewSplitIntentAllocator(testDomains, topN, maxDest, newTestLogger())
}

func TestAllocate_SingleOriginSplitAcrossDestinations(t *testing.T) {
	alloc := newTestAllocator(7, 10)
	tracker := NewReservationTracker(
		balancesOf(testTicker, map[domain.DomainID]uint64{"1": 50, "42161": 50}),
		balancesOf(testTicker, map[domain.DomainID]uint64{"8453": 100}),
	)

	got := alloc.Allocate(AllocationRequest{
		InvoiceID:  "inv-1",
		TickerHash: testTicker,
		Candidates: testDomains,
		Required:   requiredEverywhere(100),
	}, tracker)

	require.False(t, got.IsEmpty())
	assert.Equal(t, domain.DomainID("8453"), got.Origin)
	assert.Equal(t, []domain.AllocationEntry{
		{Domain: "1", Amount: amt(50)},
		{Domain: "42161", Amount: amt(50)},
	}, got.Entries)
	assert.Equal(t, uint64(100), got.Total.Uint64())
	assert.True(t, got.Remainder().IsZero())
	assert.Equal(t, []domain.DomainID{"1", "10", "42161"}, alloc.Destinations(got.Origin))

	// the allocator only reads the tracker
	assert.Equal(t, uint64(50), tracker.Available(testTicker, "1").Uint64())
	assert.Equal(t, uint64(100), tracker.Spendable(testTicker, "8453").Uint64())
}

func TestAllocate_PartialCoverageIsKept(t *testing.T) {
	alloc := newTestAllocator(7, 10)
	tracker := NewReservationTracker(
		balancesOf(testTicker, map[domain.DomainID]uint64{"1": 40, "8453": 30}),
		balancesOf(testTicker, map[domain.DomainID]uint64{"10": 200}),
	)

	got := alloc.Allocate(AllocationRequest{
		InvoiceID:  "inv-1",
		TickerHash: testTicker,
		Candidates: testDomains,
		Required:   requiredEverywhere(200),
	}, tracker)

	require.False(t, got.IsEmpty())
	assert.Equal(t, domain.DomainID("10"), got.Origin)
	assert.Equal(t, 2, got.NonZeroCount())
	assert.Equal(t, uint64(70), got.Total.Uint64())
	assert.Equal(t, uint64(130), got.Remainder().Uint64())
}

func TestAllocate_FewerEntriesBeatsPriority(t *testing.T) {
	alloc := newTestAllocator(7, 10)
	// origin 1 needs 10, 8453 and 42161; origin 42161 needs only 1 and 10
	tracker := NewReservationTracker(
		balancesOf(testTicker, map[domain.DomainID]uint64{"1": 70, "10": 40, "8453": 30, "42161": 30}),
		balancesOf(testTicker, map[domain.DomainID]uint64{"1": 100, "42161": 100}),
	)

	got := alloc.Allocate(AllocationRequest{
		InvoiceID:  "inv-1",
		TickerHash: testTicker,
		Candidates: testDomains,
		Required:   requiredEverywhere(100),
	}, tracker)

	assert.Equal(t, domain.DomainID("42161"), got.Origin)
	assert.Equal(t, 2, got.NonZeroCount())
	assert.Equal(t, uint64(100), got.Total.Uint64())
}

func TestAllocate_TopNPassPreferred(t *testing.T) {
	alloc := newTestAllocator(2, 10)
	tracker := NewReservationTracker(
		balancesOf(testTicker, map[domain.DomainID]uint64{"10": 60, "42161": 100}),
		balancesOf(testTicker, map[domain.DomainID]uint64{"1": 100}),
	)

	got := alloc.Allocate(AllocationRequest{
		TickerHash: testTicker,
		Candidates: []domain.DomainID{"1"},
		Required:   requiredEverywhere(100),
	}, tracker)

	// top-N covers 60 with one entry; the full walk covers 100 with two
	assert.Equal(t, 1, got.NonZeroCount())
	assert.True(t, got.TopNOnly)
	assert.Equal(t, uint64(60), got.Total.Uint64())
	assert.Equal(t, []domain.DomainID{"10"}, alloc.TopNDestinations("1"))
}

func TestAllocate_NoUsableOrigin(t *testing.T) {
	alloc := newTestAllocator(7, 10)
	tracker := NewReservationTracker(
		balancesOf(testTicker, map[domain.DomainID]uint64{"1": 100}),
		balancesOf(testTicker, map[domain.DomainID]uint64{"10": 99}),
	)

	got := alloc.Allocate(AllocationRequest{
		TickerHash: testTicker,
		Candidates: testDomains,
		Required: map[domain.DomainID]*uint256.Int{
			"10":   amt(100),
			"8453": nil,
		},
	}, tracker)

	assert.True(t, got.IsEmpty())
	assert.Equal(t, domain.DomainID(""), got.Origin)
	assert.Empty(t, got.Entries)
}

func TestAllocate_ZeroCoverageStillReturnsOrigin(t *testing.T) {
	alloc := newTestAllocator(7, 10)
	tracker := NewReservationTracker(nil, balancesOf(testTicker, map[domain.DomainID]uint64{"10": 100}))

	got := alloc.Allocate(AllocationRequest{
		TickerHash: testTicker,
		Candidates: testDomains,
		Required:   requiredEverywhere(100),
	}, tracker)

	require.False(t, got.IsEmpty())
	assert.Equal(t, domain.DomainID("10"), got.Origin)
	assert.Equal(t, 0, got.NonZeroCount())
	assert.Equal(t, uint64(100), got.Remainder().Uint64())
}

func TestAllocate_TotalNeverExceedsRequired(t *testing.T) {
	alloc := newTestAllocator(2, 10)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		custodied := map[domain.DomainID]uint64{}
		spendable := map[domain.DomainID]uint64{}
		for _, d := range testDomains {
			custodied[d] = uint64(rng.Intn(150))
			spendable[d] = uint64(rng.Intn(150))
		}
		required := uint64(rng.Intn(200) + 1)
		tracker := NewReservationTracker(balancesOf(testTicker, custodied), balancesOf(testTicker, spendable))

		got := alloc.Allocate(AllocationRequest{
			TickerHash: testTicker,
			Candidates: testDomains,
			Required:   requiredEverywhere(required),
		}, tracker)
		if got.IsEmpty() {
			continue
		}

		assert.LessOrEqual(t, got.Total.Uint64(), required)
		assert.GreaterOrEqual(t, spendable[got.Origin], required)
		sum := uint64(0)
		for _, e := range got.Entries {
			assert.NotEqual(t, got.Origin, e.Domain)
			assert.LessOrEqual(t, e.Amount.Uint64(), custodied[e.Domain])
			sum += e.Amount.Uint64()
		}
		assert.Equal(t, got.Total.Uint64(), sum)
	}
}

func TestDestinations_Capped(t *testing.T) {
	alloc := newTestAllocator(7, 2)

	assert.Equal(t, []domain.DomainID{"10", "8453"}, alloc.Destinations("1"))
	assert.Equal(t, testDomains, alloc.Domains())
}

func TestIsBetter(t *testing.T) {
	entries := func(n int) []domain.AllocationEntry {
		out := make([]domain.AllocationEntry, n)
		for i := range out {
			out[i] = domain.AllocationEntry{Domain: testDomains[i], Amount: amt(1)}
		}
		return out
	}
	mk := func(n int, topN bool, total uint64) *domain.Allocation {
		return &domain.Allocation{Origin: "1", Entries: entries(n), TopNOnly: topN, Total: amt(total)}
	}

	tests := []struct {
		name      string
		candidate *domain.Allocation
		incumbent *domain.Allocation
		want      bool
	}{
		{"no incumbent", mk(0, false, 0), nil, true},
		{"coverage beats none", mk(3, false, 10), mk(0, true, 0), true},
		{"none loses to coverage", mk(0, true, 0), mk(3, false, 10), false},
		{"fewer entries wins", mk(2, false, 50), mk(3, true, 100), true},
		{"more entries loses", mk(3, true, 100), mk(2, false, 50), false},
		{"top-N breaks count tie", mk(2, true, 50), mk(2, false, 100), true},
		{"higher total breaks remaining tie", mk(2, true, 100), mk(2, true, 50), true},
		{"exact tie keeps incumbent", mk(2, true, 50), mk(2, true, 50), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBetter(tt.candidate, tt.incumbent))
		})
	}
}
