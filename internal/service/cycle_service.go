package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/internal/metrics"
	"solver-rebalancer/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CycleDeps wires the components one polling cycle drives.
type CycleDeps struct {
	Sweeper    *SweeperService
	Operations *OperationService
	Invoices   *InvoiceService
	Rebalancer *RebalanceService
	Earmarks   ports.EarmarkService

	EarmarkRepo   ports.EarmarkRepository
	OperationRepo ports.RebalanceOperationRepository
	Transactor    ports.DBTransactor

	Source    ports.InvoiceSource
	Balances  ports.BalanceProvider
	Purchases ports.PurchaseCache
	Assets    domain.AssetBook
	Metrics   *metrics.Metrics
	Alerts    ports.Alerter // optional
	Logger    zerolog.Logger
}

// CycleService implements ports.CycleRunner.
type CycleService struct {
	deps CycleDeps
	log  zerolog.Logger
	now  func() time.Time
}

// NewCycleService creates a new CycleService.
func NewCycleService(deps CycleDeps) *CycleService {
	return &CycleService{deps: deps, log: deps.Logger, now: time.Now}
}

// RunCycle runs one full pass. Persisted state is re-read from scratch every
// time; nothing in memory survives between cycles.
func (s *CycleService) RunCycle(ctx context.Context) (*ports.CycleReport, error) {
	report := &ports.CycleReport{
		StartedAt: s.now().UTC(),
		Skipped:   make(map[domain.SkipReason]int),
	}
	err := s.run(ctx, report)
	report.Duration = s.now().Sub(report.StartedAt)

	result := "ok"
	switch {
	case apperror.IsFatal(err):
		result = "fatal"
	case err != nil:
		result = "error"
	}
	s.deps.Metrics.ObserveCycle(report, result)

	if result == "fatal" {
		s.alert(ctx, ports.Alert{Event: ports.AlertCycleFatal, Subject: "cycle", Reason: err.Error()})
	}
	if n := report.Swept.Total(); n > 0 {
		s.alert(ctx, ports.Alert{
			Event:   ports.AlertRecordsSwept,
			Subject: "sweeper",
			Reason:  "records forced terminal",
			Fields: map[string]string{
				"count":         strconv.Itoa(n),
				"orphaned_legs": strconv.FormatInt(report.Swept.OrphanedOps, 10),
			},
		})
	}

	event := s.log.Info()
	if err != nil {
		event = s.log.Error().Err(err).Bool("fatal", apperror.IsFatal(err))
	}
	event.
		Dur("duration", report.Duration).
		Int("invoices", report.InvoicesSeen).
		Int("intents", report.IntentsEmitted).
		Int("earmarks_created", report.EarmarksCreated).
		Int("operations_created", report.OperationsCreated).
		Int("operations_advanced", report.OperationsAdvanced).
		Int("swept", report.Swept.Total()).
		Msg("cycle finished")

	return report, err
}

func (s *CycleService) run(ctx context.Context, report *ports.CycleReport) error {
	swept, err := s.deps.Sweeper.Sweep(ctx)
	report.Swept = swept
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	advanced, err := s.deps.Operations.ProcessOperations(ctx)
	report.OperationsAdvanced = advanced
	if err != nil {
		return fmt.Errorf("process operations: %w", err)
	}

	invoices, err := s.deps.Source.FetchInvoices(ctx)
	if err != nil {
		return fmt.Errorf("fetch invoices: %w", err)
	}
	report.InvoicesSeen = len(invoices)
	open := make(map[string]bool, len(invoices))
	for _, inv := range invoices {
		open[inv.ID] = true
	}

	purchases, err := s.reconcilePurchases(ctx, open)
	if err != nil {
		return fmt.Errorf("purchase cache: %w", err)
	}

	spendable, custodied, err := s.fetchBalances(ctx)
	if err != nil {
		return fmt.Errorf("balances: %w", err)
	}
	s.deps.Metrics.SetBalances("spendable", spendable)
	s.deps.Metrics.SetBalances("custodied", custodied)

	earmarks, err := s.reconcileEarmarks(ctx, open)
	if err != nil {
		return fmt.Errorf("earmarks: %w", err)
	}

	tracker := NewReservationTracker(custodied, spendable)
	match, err := s.deps.Invoices.ProcessInvoices(ctx, MatchInput{
		Invoices:  invoices,
		Tracker:   tracker,
		Purchases: purchases,
		Earmarks:  earmarks,
	})
	if match != nil {
		report.IntentsEmitted = match.IntentsEmitted
		for reason, n := range match.Skipped {
			report.Skipped[reason] += n
		}
	}
	if err != nil {
		return fmt.Errorf("match invoices: %w", err)
	}

	for _, e := range match.Fulfilled {
		if err := s.deps.Earmarks.UpdateStatus(ctx, e.ID, domain.EarmarkStatusCompleted, "invoice purchased"); err != nil {
			if apperror.IsFatal(err) {
				return fmt.Errorf("complete earmark: %w", err)
			}
			s.log.Error().Err(err).Str("earmark_id", e.ID.String()).Msg("earmark completion failed")
		}
	}

	onDemand, err := s.deps.Rebalancer.RebalanceOnDemand(ctx, match.Unfunded, tracker)
	report.EarmarksCreated += onDemand.EarmarksCreated
	report.OperationsCreated += onDemand.OperationsCreated
	if err != nil {
		return fmt.Errorf("on-demand rebalance: %w", err)
	}

	threshold, err := s.deps.Rebalancer.RebalanceThresholds(ctx, tracker)
	report.OperationsCreated += threshold.OperationsCreated
	if err != nil {
		return fmt.Errorf("threshold rebalance: %w", err)
	}
	return nil
}

// reconcilePurchases drops cached purchases whose invoice has settled and
// returns the rest.
func (s *CycleService) reconcilePurchases(ctx context.Context, open map[string]bool) ([]domain.Purchase, error) {
	cached, err := s.deps.Purchases.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var (
		live    []domain.Purchase
		settled []string
	)
	for _, p := range cached {
		if open[p.InvoiceID] {
			live = append(live, p)
			continue
		}
		settled = append(settled, p.InvoiceID)
	}
	if len(settled) > 0 {
		if err := s.deps.Purchases.Remove(ctx, settled...); err != nil {
			s.log.Warn().Err(err).Int("count", len(settled)).Msg("removing settled purchases failed")
		} else {
			s.log.Debug().Strs("invoice_ids", settled).Msg("settled purchases removed")
		}
	}
	return live, nil
}

// fetchBalances reads both snapshots concurrently; they are independent reads.
func (s *CycleService) fetchBalances(ctx context.Context) (spendable, custodied domain.BalanceMap, err error) {
	tickers := s.deps.Assets.Tickers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		spendable, err = s.deps.Balances.GetSpendableBalances(gctx, tickers)
		return err
	})
	g.Go(func() error {
		var err error
		custodied, err = s.deps.Balances.GetCustodiedBalances(gctx, tickers)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return spendable, custodied, nil
}

// reconcileEarmarks cancels earmarks whose invoice is no longer open and
// flags their in-flight legs as orphaned. It returns the remaining active
// earmarks keyed by invoice id.
func (s *CycleService) reconcileEarmarks(ctx context.Context, open map[string]bool) (map[string]domain.Earmark, error) {
	active, err := s.deps.EarmarkRepo.List(ctx, ports.EarmarkListParams{
		Statuses: []domain.EarmarkStatus{
			domain.EarmarkStatusInitiating,
			domain.EarmarkStatusPending,
			domain.EarmarkStatusReady,
		},
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.Earmark, len(active))
	for _, e := range active {
		if open[e.InvoiceID] || e.Status == domain.EarmarkStatusInitiating {
			out[e.InvoiceID] = e
			continue
		}

		var orphaned int64
		err := withTransaction(ctx, s.deps.Transactor, func(tx pgx.Tx) error {
			if err := transitionEarmark(ctx, s.deps.EarmarkRepo, tx, s.log, e.ID,
				domain.EarmarkStatusCancelled, "invoice no longer open"); err != nil {
				return err
			}
			var err error
			orphaned, err = s.deps.OperationRepo.MarkOrphaned(ctx, tx, []uuid.UUID{e.ID})
			return err
		})
		if err != nil {
			if apperror.IsFatal(err) {
				return nil, err
			}
			s.log.Error().Err(err).Str("earmark_id", e.ID.String()).Msg("earmark reconciliation failed")
			out[e.InvoiceID] = e
			continue
		}
		s.alert(ctx, ports.Alert{
			Event:   ports.AlertEarmarkCancelled,
			Subject: e.ID.String(),
			Reason:  "invoice no longer open",
			Fields:  map[string]string{"invoice_id": e.InvoiceID, "orphaned_legs": strconv.FormatInt(orphaned, 10)},
		})
		if orphaned > 0 {
			s.log.Warn().
				Str("earmark_id", e.ID.String()).
				Int64("operations", orphaned).
				Msg("in-flight legs flagged orphaned")
		}
	}
	return out, nil
}

func (s *CycleService) alert(ctx context.Context, a ports.Alert) {
	if s.deps.Alerts == nil {
		return
	}
	a.At = s.now().UTC()
	s.deps.Alerts.Alert(ctx, a)
}
