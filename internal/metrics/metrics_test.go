package metrics

import (
	"testing"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCycle(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCycle(&ports.CycleReport{
		Duration:           2 * time.Second,
		IntentsEmitted:     3,
		Skipped:            map[domain.SkipReason]int{domain.SkipTooYoung: 2},
		EarmarksCreated:    1,
		OperationsCreated:  2,
		OperationsAdvanced: 4,
		Swept: ports.SweepReport{
			ExpiredInitiating: []uuid.UUID{uuid.New()},
			OrphanedOps:       2,
		},
	}, "ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cycles.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IntentsEmitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvoicesSkipped.WithLabelValues("TooYoung")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EarmarksCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsCreated))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.OperationsAdvanced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsSwept.WithLabelValues("initiating")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsSwept.WithLabelValues("orphaned")))
}

func TestObserveCycle_ErrorWithoutReport(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveCycle(nil, "fatal")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cycles.WithLabelValues("fatal")))
}

func TestSetBalances(t *testing.T) {
	m := New(prometheus.NewRegistry())

	balances := domain.BalanceMap{}
	balances.Set("0xusdc", "1", new(uint256.Int).Mul(uint256.NewInt(250), uint256.NewInt(1e18)))
	m.SetBalances("spendable", balances)

	assert.InDelta(t, 250.0, testutil.ToFloat64(m.Balance.WithLabelValues("spendable", "0xusdc", "1")), 1e-9)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCycle(&ports.CycleReport{}, "ok")
		m.SetBalances("custodied", domain.BalanceMap{})
	})
}
