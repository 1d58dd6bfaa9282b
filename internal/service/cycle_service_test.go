package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"solver-rebalancer/internal/adapter/storage/memory"
	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/internal/core/ports/mocks"
	"solver-rebalancer/internal/metrics"
	"solver-rebalancer/pkg/apperror"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []ports.Alert
}

func (r *recordingAlerter) Alert(_ context.Context, a ports.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *recordingAlerter) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, a.Event)
	}
	return out
}

type cycleFixture struct {
	store    *memory.Store
	source   *mocks.MockInvoiceSource
	balances *mocks.MockBalanceProvider
	quotes   *mocks.MockQuoteProvider
	intents  *mocks.MockIntentSubmitter
	cache    *memory.PurchaseCache
	metrics  *metrics.Metrics
	alerts   *recordingAlerter
	svc      *CycleService
}

func newCycleFixture(t *testing.T, assets domain.AssetBook) *cycleFixture {
	ctrl := gomock.NewController(t)
	store := memory.NewStore()
	log := newTestLogger()

	f := &cycleFixture{
		store:    store,
		source:   mocks.NewMockInvoiceSource(ctrl),
		balances: mocks.NewMockBalanceProvider(ctrl),
		quotes:   mocks.NewMockQuoteProvider(ctrl),
		intents:  mocks.NewMockIntentSubmitter(ctrl),
		cache:    memory.NewPurchaseCache(time.Hour),
		metrics:  metrics.New(prometheus.NewRegistry()),
		alerts:   &recordingAlerter{},
	}
	bridges := mocks.NewMockBridgeRegistry(ctrl)
	submitter := mocks.NewMockTransactionSubmitter(ctrl)

	earmarks := NewEarmarkService(store.Earmarks(), store.Transactor(), log)
	f.svc = NewCycleService(CycleDeps{
		Sweeper: NewSweeperService(store.Earmarks(), store.Operations(), store.Transactor(), SweeperConfig{
			InitiatingTTL: 5 * time.Minute,
			EarmarkTTL:    24 * time.Hour,
			OperationTTL:  24 * time.Hour,
		}, log),
		Operations: NewOperationService(store.Operations(), store.Earmarks(), store.Transactor(),
			bridges, submitter, assets, nil, testSender, log),
		Invoices: NewInvoiceService(newTestAllocator(7, 10), assets, f.quotes, f.intents, f.cache,
			MatchingConfig{Owner: testOwner, AbortOnOldest: true}, log),
		Rebalancer: NewRebalanceService(earmarks, store.Operations(), store.Transactor(),
			bridges, submitter, assets, nil, testDomains, testSender, log),
		Earmarks:      earmarks,
		EarmarkRepo:   store.Earmarks(),
		OperationRepo: store.Operations(),
		Transactor:    store.Transactor(),
		Source:        f.source,
		Balances:      f.balances,
		Purchases:     f.cache,
		Assets:        assets,
		Metrics:       f.metrics,
		Alerts:        f.alerts,
		Logger:        log,
	})
	return f
}

func (f *cycleFixture) expectBalances(custodied, spendable map[domain.DomainID]uint64) {
	f.balances.EXPECT().GetSpendableBalances(gomock.Any(), gomock.Any()).Return(balancesOf(testTicker, spendable), nil)
	f.balances.EXPECT().GetCustodiedBalances(gomock.Any(), gomock.Any()).Return(balancesOf(testTicker, custodied), nil)
}

func TestRunCycle_PurchasesOpenInvoice(t *testing.T) {
	f := newCycleFixture(t, testAssets())

	var batches [][]domain.PurchaseIntent
	f.source.EXPECT().FetchInvoices(gomock.Any()).Return([]domain.Invoice{testInvoice("inv-1", time.Hour)}, nil)
	f.expectBalances(map[domain.DomainID]uint64{"1": 50, "42161": 50}, map[domain.DomainID]uint64{"8453": 100})
	f.quotes.EXPECT().GetMinAmounts(gomock.Any(), "inv-1").Return(requiredEverywhere(100), nil)
	f.intents.EXPECT().SubmitIntents(gomock.Any(), gomock.Any()).DoAndReturn(capture(&batches))

	report, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.InvoicesSeen)
	assert.Equal(t, 2, report.IntentsEmitted)
	assert.Zero(t, report.Swept.Total())

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Cycles.WithLabelValues("ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.IntentsEmitted))
	assert.Empty(t, f.alerts.events())

	cached, err := f.cache.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestRunCycle_SettledPurchasesDropped(t *testing.T) {
	f := newCycleFixture(t, testAssets())
	require.NoError(t, f.cache.Add(context.Background(),
		domain.Purchase{InvoiceID: "settled", TickerHash: testTicker, Origin: "8453", CreatedAt: time.Now()},
		domain.Purchase{InvoiceID: "open", TickerHash: testTicker, Origin: "1", CreatedAt: time.Now()},
	))

	f.source.EXPECT().FetchInvoices(gomock.Any()).Return([]domain.Invoice{testInvoice("open", time.Hour)}, nil)
	f.expectBalances(nil, nil)

	report, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped[domain.SkipPendingPurchase])

	cached, err := f.cache.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "open", cached[0].InvoiceID)
}

func TestRunCycle_ClosedInvoiceCancelsEarmark(t *testing.T) {
	f := newCycleFixture(t, testAssets())
	ctx := context.Background()
	now := time.Now().UTC()

	earmark := &domain.Earmark{
		ID: uuid.New(), InvoiceID: "gone", DesignatedDomain: "8453", TickerHash: testTicker,
		MinAmount: amt(100), Status: domain.EarmarkStatusPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.Earmarks().Create(ctx, nil, earmark))
	leg := &domain.RebalanceOperation{
		ID: uuid.New(), EarmarkID: &earmark.ID, Origin: "1", Destination: "8453", TickerHash: testTicker,
		Amount: amt(100), Bridge: "across", Status: domain.OperationStatusCompleted, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.Operations().Create(ctx, nil, leg))
	initiating := &domain.Earmark{
		ID: uuid.New(), InvoiceID: "also-gone", DesignatedDomain: "8453", TickerHash: testTicker,
		MinAmount: amt(100), Status: domain.EarmarkStatusInitiating, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.Earmarks().Create(ctx, nil, initiating))

	f.source.EXPECT().FetchInvoices(gomock.Any()).Return(nil, nil)
	f.expectBalances(nil, nil)

	_, err := f.svc.RunCycle(ctx)
	require.NoError(t, err)

	got, _ := f.store.Earmarks().GetByID(ctx, earmark.ID)
	assert.Equal(t, domain.EarmarkStatusCancelled, got.Status)
	got, _ = f.store.Earmarks().GetByID(ctx, initiating.ID)
	assert.Equal(t, domain.EarmarkStatusInitiating, got.Status)
	assert.Equal(t, []string{ports.AlertEarmarkCancelled}, f.alerts.events())
}

func TestRunCycle_ReadyEarmarkCompletedOnPurchase(t *testing.T) {
	f := newCycleFixture(t, testAssets())
	ctx := context.Background()
	now := time.Now().UTC()

	earmark := &domain.Earmark{
		ID: uuid.New(), InvoiceID: "inv-1", DesignatedDomain: "8453", TickerHash: testTicker,
		MinAmount: amt(100), Status: domain.EarmarkStatusReady, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.Earmarks().Create(ctx, nil, earmark))

	var batches [][]domain.PurchaseIntent
	f.source.EXPECT().FetchInvoices(gomock.Any()).Return([]domain.Invoice{testInvoice("inv-1", time.Hour)}, nil)
	f.expectBalances(map[domain.DomainID]uint64{"1": 100}, map[domain.DomainID]uint64{"8453": 100})
	f.quotes.EXPECT().GetMinAmounts(gomock.Any(), "inv-1").Return(requiredEverywhere(100), nil)
	f.intents.EXPECT().SubmitIntents(gomock.Any(), gomock.Any()).DoAndReturn(capture(&batches))

	_, err := f.svc.RunCycle(ctx)
	require.NoError(t, err)

	got, _ := f.store.Earmarks().GetByID(ctx, earmark.ID)
	assert.Equal(t, domain.EarmarkStatusCompleted, got.Status)
	require.Len(t, batches, 1)
	assert.Equal(t, domain.DomainID("8453"), batches[0][0].Origin)
}

func TestRunCycle_SweepAlerts(t *testing.T) {
	f := newCycleFixture(t, testAssets())
	ctx := context.Background()
	old := time.Now().UTC().Add(-time.Hour)

	require.NoError(t, f.store.Earmarks().Create(ctx, nil, &domain.Earmark{
		ID: uuid.New(), InvoiceID: "inv-stuck", DesignatedDomain: "8453", TickerHash: testTicker,
		MinAmount: amt(1), Status: domain.EarmarkStatusInitiating, CreatedAt: old, UpdatedAt: old,
	}))

	f.source.EXPECT().FetchInvoices(gomock.Any()).Return(nil, nil)
	f.expectBalances(nil, nil)

	report, err := f.svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Swept.ExpiredInitiating, 1)
	assert.Equal(t, []string{ports.AlertRecordsSwept}, f.alerts.events())
}

func TestRunCycle_UpstreamErrorIsNotFatal(t *testing.T) {
	f := newCycleFixture(t, testAssets())

	f.source.EXPECT().FetchInvoices(gomock.Any()).Return(nil, apperror.ErrUpstream("hub", errors.New("502")))

	_, err := f.svc.RunCycle(context.Background())
	require.Error(t, err)
	assert.False(t, apperror.IsFatal(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Cycles.WithLabelValues("error")))
	assert.Empty(t, f.alerts.events())
}

func TestRunCycle_MissingAssetAbortsAndAlerts(t *testing.T) {
	assets := testAssets()
	delete(assets[testTicker].Addresses, "8453")
	f := newCycleFixture(t, assets)

	f.source.EXPECT().FetchInvoices(gomock.Any()).Return([]domain.Invoice{testInvoice("inv-1", time.Hour)}, nil)
	f.expectBalances(map[domain.DomainID]uint64{"1": 100}, map[domain.DomainID]uint64{"8453": 100})
	f.quotes.EXPECT().GetMinAmounts(gomock.Any(), "inv-1").Return(requiredEverywhere(100), nil)

	_, err := f.svc.RunCycle(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsFatal(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Cycles.WithLabelValues("fatal")))
	assert.Equal(t, []string{ports.AlertCycleFatal}, f.alerts.events())
}
