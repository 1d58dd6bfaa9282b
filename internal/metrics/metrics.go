package metrics

import (
	"math/big"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the rebalancing cycle.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Cycles             *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	IntentsEmitted     prometheus.Counter
	InvoicesSkipped    *prometheus.CounterVec
	EarmarksCreated    prometheus.Counter
	OperationsCreated  prometheus.Counter
	OperationsAdvanced prometheus.Counter
	RecordsSwept       *prometheus.CounterVec
	Balance            *prometheus.GaugeVec
}

// New registers all solver metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solver_cycles_total",
			Help: "Polling cycles by result",
		}, []string{"result"}), // result: "ok", "error", "fatal"

		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "solver_cycle_duration_seconds",
			Help:    "Duration of one polling cycle",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		IntentsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "solver_intents_emitted_total",
			Help: "Purchase intents submitted",
		}),

		InvoicesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solver_invoices_skipped_total",
			Help: "Invoices skipped by reason",
		}, []string{"reason"}),

		EarmarksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "solver_earmarks_created_total",
			Help: "Earmarks created for on-demand rebalancing",
		}),

		OperationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "solver_rebalance_operations_created_total",
			Help: "Rebalance legs submitted",
		}),

		OperationsAdvanced: factory.NewCounter(prometheus.CounterOpts{
			Name: "solver_rebalance_operations_advanced_total",
			Help: "Rebalance leg status changes made by the state machine",
		}),

		RecordsSwept: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solver_records_swept_total",
			Help: "Records forced terminal by the sweeper",
		}, []string{"category"}), // category: "initiating", "stale", "ready", "operation", "orphaned"

		Balance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solver_balance",
			Help: "Last observed balance in whole tokens",
		}, []string{"kind", "ticker", "domain"}), // kind: "spendable", "custodied"
	}
}

// ObserveCycle records the outcome of one cycle.
func (m *Metrics) ObserveCycle(report *ports.CycleReport, result string) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(result).Inc()
	if report == nil {
		return
	}
	m.CycleDuration.Observe(report.Duration.Seconds())
	m.IntentsEmitted.Add(float64(report.IntentsEmitted))
	for reason, n := range report.Skipped {
		m.InvoicesSkipped.WithLabelValues(string(reason)).Add(float64(n))
	}
	m.EarmarksCreated.Add(float64(report.EarmarksCreated))
	m.OperationsCreated.Add(float64(report.OperationsCreated))
	m.OperationsAdvanced.Add(float64(report.OperationsAdvanced))

	swept := report.Swept
	m.RecordsSwept.WithLabelValues("initiating").Add(float64(len(swept.ExpiredInitiating)))
	m.RecordsSwept.WithLabelValues("stale").Add(float64(len(swept.ExpiredStale)))
	m.RecordsSwept.WithLabelValues("ready").Add(float64(len(swept.ExpiredReady)))
	m.RecordsSwept.WithLabelValues("operation").Add(float64(len(swept.ExpiredOperations)))
	m.RecordsSwept.WithLabelValues("orphaned").Add(float64(swept.OrphanedOps))
}

// SetBalances publishes a balance snapshot.
func (m *Metrics) SetBalances(kind string, balances domain.BalanceMap) {
	if m == nil {
		return
	}
	for ticker, byDomain := range balances {
		for d, v := range byDomain {
			m.Balance.WithLabelValues(kind, string(ticker), string(d)).Set(wholeTokens(v))
		}
	}
}

var standardUnit = new(big.Float).SetFloat64(1e18)

func wholeTokens(v *uint256.Int) float64 {
	f := new(big.Float).SetInt(domain.AmountOrZero(v).ToBig())
	out, _ := f.Quo(f, standardUnit).Float64()
	return out
}
