package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"solver-rebalancer/internal/adapter/storage/memory"
	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEarmarkService() (*EarmarkServiceImpl, *memory.Store) {
	store := memory.NewStore()
	return NewEarmarkService(store.Earmarks(), store.Transactor(), newTestLogger()), store
}

func earmarkRequest(invoiceID string) ports.CreateEarmarkRequest {
	return ports.CreateEarmarkRequest{
		InvoiceID:        invoiceID,
		DesignatedDomain: "8453",
		TickerHash:       testTicker,
		MinAmount:        "1000000000000000000",
	}
}

func TestEarmarkService_Create(t *testing.T) {
	svc, _ := newTestEarmarkService()
	ctx := context.Background()

	earmark, err := svc.CreateEarmark(ctx, earmarkRequest("inv-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.EarmarkStatusInitiating, earmark.Status)
	assert.Equal(t, "1000000000000000000", earmark.MinAmount.Dec())
	assert.False(t, earmark.CreatedAt.IsZero())

	active, err := svc.GetActiveEarmark(ctx, "inv-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, earmark.ID, active.ID)

	none, err := svc.GetActiveEarmark(ctx, "inv-2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestEarmarkService_CreateValidation(t *testing.T) {
	svc, _ := newTestEarmarkService()

	tests := []struct {
		name   string
		mutate func(r *ports.CreateEarmarkRequest)
	}{
		{"missing invoice", func(r *ports.CreateEarmarkRequest) { r.InvoiceID = "" }},
		{"missing domain", func(r *ports.CreateEarmarkRequest) { r.DesignatedDomain = "" }},
		{"missing ticker", func(r *ports.CreateEarmarkRequest) { r.TickerHash = "" }},
		{"bad amount", func(r *ports.CreateEarmarkRequest) { r.MinAmount = "-5" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := earmarkRequest("inv-1")
			tt.mutate(&req)
			_, err := svc.CreateEarmark(context.Background(), req)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		})
	}
}

func TestEarmarkService_DuplicateIsRace(t *testing.T) {
	svc, _ := newTestEarmarkService()
	ctx := context.Background()

	first, err := svc.CreateEarmark(ctx, earmarkRequest("inv-1"))
	require.NoError(t, err)

	_, err = svc.CreateEarmark(ctx, earmarkRequest("inv-1"))
	assert.True(t, apperror.IsKind(err, apperror.KindRace))
	assert.False(t, apperror.IsFatal(err))

	// a terminal earmark frees the invoice
	require.NoError(t, svc.UpdateStatus(ctx, first.ID, domain.EarmarkStatusCancelled, "operator"))
	_, err = svc.CreateEarmark(ctx, earmarkRequest("inv-1"))
	assert.NoError(t, err)
}

func TestEarmarkService_ConcurrentCreateSingleWinner(t *testing.T) {
	svc, _ := newTestEarmarkService()

	const workers = 12
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		races int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateEarmark(context.Background(), earmarkRequest("inv-1"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperror.IsKind(err, apperror.KindRace):
				races++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, races)
}

func TestEarmarkService_UpdateStatus(t *testing.T) {
	svc, _ := newTestEarmarkService()
	ctx := context.Background()

	earmark, err := svc.CreateEarmark(ctx, earmarkRequest("inv-1"))
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, earmark.ID, domain.EarmarkStatusPending, "legs submitted"))
	require.NoError(t, svc.UpdateStatus(ctx, earmark.ID, domain.EarmarkStatusReady, "funds arrived"))

	err = svc.UpdateStatus(ctx, earmark.ID, domain.EarmarkStatusPending, "backwards")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	require.NoError(t, svc.UpdateStatus(ctx, earmark.ID, domain.EarmarkStatusCompleted, "invoice purchased"))
	got, err := svc.GetEarmark(ctx, earmark.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EarmarkStatusCompleted, got.Status)

	err = svc.UpdateStatus(ctx, uuid.New(), domain.EarmarkStatusCancelled, "missing")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

// interleavedEarmarkRepo runs beforeUpdate once, between the service's read
// of the current status and its write.
type interleavedEarmarkRepo struct {
	ports.EarmarkRepository
	beforeUpdate func()
}

func (r *interleavedEarmarkRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.EarmarkStatus) error {
	if hook := r.beforeUpdate; hook != nil {
		r.beforeUpdate = nil
		hook()
	}
	return r.EarmarkRepository.UpdateStatus(ctx, tx, id, from, to)
}

func TestEarmarkService_UpdateStatus_SweptBeforeWrite(t *testing.T) {
	store := memory.NewStore()
	repo := &interleavedEarmarkRepo{EarmarkRepository: store.Earmarks()}
	svc := NewEarmarkService(repo, store.Transactor(), newTestLogger())
	other := NewEarmarkService(store.Earmarks(), store.Transactor(), newTestLogger())
	ctx := context.Background()

	first, err := svc.CreateEarmark(ctx, earmarkRequest("inv-1"))
	require.NoError(t, err)
	require.NoError(t, svc.UpdateStatus(ctx, first.ID, domain.EarmarkStatusPending, "legs submitted"))

	var second *domain.Earmark
	repo.beforeUpdate = func() {
		sweeper := NewSweeperService(store.Earmarks(), store.Operations(), store.Transactor(),
			SweeperConfig{InitiatingTTL: time.Hour, EarmarkTTL: time.Hour, OperationTTL: time.Hour}, newTestLogger())
		sweeper.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		report, err := sweeper.Sweep(ctx)
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{first.ID}, report.ExpiredStale)

		second, err = other.CreateEarmark(ctx, earmarkRequest("inv-1"))
		require.NoError(t, err)
	}

	err = svc.UpdateStatus(ctx, first.ID, domain.EarmarkStatusReady, "funds arrived")
	assert.True(t, apperror.IsKind(err, apperror.KindRace))
	assert.False(t, apperror.IsFatal(err))

	got, err := svc.GetEarmark(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EarmarkStatusExpired, got.Status)

	all, err := svc.ListEarmarks(ctx, ports.EarmarkListParams{})
	require.NoError(t, err)
	var live []uuid.UUID
	for _, e := range all {
		if e.InvoiceID == "inv-1" && !e.IsTerminal() {
			live = append(live, e.ID)
		}
	}
	require.NotNil(t, second)
	assert.Equal(t, []uuid.UUID{second.ID}, live)
}

func TestEarmarkService_GetAndList(t *testing.T) {
	svc, _ := newTestEarmarkService()
	ctx := context.Background()

	_, err := svc.GetEarmark(ctx, uuid.New())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	a, err := svc.CreateEarmark(ctx, earmarkRequest("inv-a"))
	require.NoError(t, err)
	_, err = svc.CreateEarmark(ctx, earmarkRequest("inv-b"))
	require.NoError(t, err)
	require.NoError(t, svc.UpdateStatus(ctx, a.ID, domain.EarmarkStatusPending, "legs submitted"))

	pending, err := svc.ListEarmarks(ctx, ports.EarmarkListParams{Statuses: []domain.EarmarkStatus{domain.EarmarkStatusPending}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "inv-a", pending[0].InvoiceID)

	all, err := svc.ListEarmarks(ctx, ports.EarmarkListParams{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListEarmarks(ctx, ports.EarmarkListParams{Statuses: []domain.EarmarkStatus{"LOST"}})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}
