package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchInvoices(t *testing.T) {
	srv := newTestHub(t, map[string]string{
		"/invoices": `{"invoices":[{
			"id":"0xinv1","ticker_hash":"0xABC","amount":"1000000","owner":"0xbb",
			"origin":"1","destinations":["10","8453"],"enqueued_at":"2024-05-01T12:00:00Z"}]}`,
	})

	got, err := NewClient(srv.URL+"/", srv.Client()).FetchInvoices(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0xinv1", got[0].ID)
	assert.Equal(t, domain.TickerHash("0xabc"), got[0].TickerHash)
	assert.Equal(t, []domain.DomainID{"10", "8453"}, got[0].Destinations)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), got[0].EnqueuedAt.UTC())
}

func TestGetMinAmounts(t *testing.T) {
	srv := newTestHub(t, map[string]string{
		"/invoices/0xinv1/min-amounts": `{"min_amounts":{"1":"500","10":"0"}}`,
		"/invoices/bad/min-amounts":    `{"min_amounts":{"1":"-4"}}`,
	})
	c := NewClient(srv.URL, srv.Client())

	got, err := c.GetMinAmounts(context.Background(), "0xinv1")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got["1"].Uint64())
	assert.True(t, got["10"].IsZero())

	_, err = c.GetMinAmounts(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, apperror.KindSubmission, apperror.KindOf(err))
}

func TestGetCustodiedBalances(t *testing.T) {
	srv := newTestHub(t, map[string]string{
		"/tickers/0xaaa/custodied": `{"custodied":{"1":"100","10":"250"}}`,
		"/tickers/0xbbb/custodied": `{"custodied":{}}`,
	})

	got, err := NewClient(srv.URL, srv.Client()).GetCustodiedBalances(context.Background(), []domain.TickerHash{"0xaaa", "0xbbb"})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.Get("0xaaa", "1").Uint64())
	assert.Equal(t, uint64(250), got.Get("0xaaa", "10").Uint64())
	assert.True(t, got.Get("0xbbb", "1").IsZero())
}

func TestClient_NonSuccessIsTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, srv.Client())

	tests := []struct {
		name string
		call func() error
	}{
		{"invoices", func() error { _, err := c.FetchInvoices(context.Background()); return err }},
		{"min amounts", func() error { _, err := c.GetMinAmounts(context.Background(), "x"); return err }},
		{"custodied", func() error {
			_, err := c.GetCustodiedBalances(context.Background(), []domain.TickerHash{"0xaaa"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, apperror.KindSubmission, apperror.KindOf(err))
			assert.False(t, apperror.IsFatal(err))
			assert.Contains(t, err.Error(), "status 502")
		})
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_MalformedBody(t *testing.T) {
	srv := newTestHub(t, map[string]string{"/invoices": `{"invoices":`})

	_, err := NewClient(srv.URL, srv.Client()).FetchInvoices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
