package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpHandler "solver-rebalancer/internal/adapter/http/handler"
	"solver-rebalancer/internal/adapter/storage/memory"
	redisStorage "solver-rebalancer/internal/adapter/storage/redis"
	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/internal/service"
	"solver-rebalancer/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp runs the real router, middleware and services over the memory
// store, with rate limiting backed by miniredis.
type testApp struct {
	server   *httptest.Server
	earmarks *service.EarmarkServiceImpl
	token    string
}

func newTestApp(t *testing.T, readsPerMinute int64) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewWithWriter("error", io.Discard)
	store := memory.NewStore()
	earmarks := service.NewEarmarkService(store.Earmarks(), store.Transactor(), log)
	operations := service.NewOperationService(
		store.Operations(), store.Earmarks(), store.Transactor(), nil, nil,
		domain.AssetBook{}, nil, common.Address{}, log,
	)
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", time.Hour, "test-issuer")
	token, _, err := tokenSvc.Generate("ops-alice")
	require.NoError(t, err)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		TokenSvc:       tokenSvc,
		Earmarks:       earmarks,
		Operations:     operations,
		CallWindow:     redisStorage.NewCallWindow(rdb, "e2e"),
		RateLimit:      readsPerMinute,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, earmarks: earmarks, token: token}
}

func (a *testApp) do(t *testing.T, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestAPI_EarmarkLifecycle(t *testing.T) {
	app := newTestApp(t, 100)

	created, err := app.earmarks.CreateEarmark(t.Context(), ports.CreateEarmarkRequest{
		InvoiceID:        "0xinv1",
		DesignatedDomain: "10",
		TickerHash:       "0xusdc",
		MinAmount:        "5000000000000000000",
	})
	require.NoError(t, err)

	resp, body := app.do(t, http.MethodGet, "/api/v1/earmarks?status=initiating", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])

	resp, body = app.do(t, http.MethodGet, "/api/v1/earmarks/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "5000000000000000000", body["data"].(map[string]interface{})["min_amount"])

	resp, body = app.do(t, http.MethodPost, "/api/v1/earmarks/"+created.ID.String()+"/cancel", `{"reason":"route paused"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CANCELLED", body["data"].(map[string]interface{})["status"])

	// Terminal earmarks cannot be cancelled again.
	resp, body = app.do(t, http.MethodPost, "/api/v1/earmarks/"+created.ID.String()+"/cancel", `{"reason":"again"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "REB_002", body["error_code"])

	// The invoice is free for a new earmark once the old one is terminal.
	_, err = app.earmarks.CreateEarmark(t.Context(), ports.CreateEarmarkRequest{
		InvoiceID:        "0xinv1",
		DesignatedDomain: "10",
		TickerHash:       "0xusdc",
		MinAmount:        "1",
	})
	require.NoError(t, err)

	resp, body = app.do(t, http.MethodGet, "/api/v1/earmarks?invoice_id=0xinv1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["data"].(map[string]interface{})["count"])
}

func TestAPI_UnknownEarmark(t *testing.T) {
	app := newTestApp(t, 100)

	resp, body := app.do(t, http.MethodGet, "/api/v1/earmarks/00000000-0000-0000-0000-000000000001", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "REB_004", body["error_code"])
}

func TestAPI_OperationsListEmpty(t *testing.T) {
	app := newTestApp(t, 100)

	resp, body := app.do(t, http.MethodGet, "/api/v1/operations?unlinked=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, data["items"])
}

func TestAPI_RejectsForeignToken(t *testing.T) {
	app := newTestApp(t, 100)
	other := service.NewJWTTokenService("another-secret-another-secret!!", time.Hour, "test-issuer")
	app.token, _, _ = other.Generate("mallory")

	resp, _ := app.do(t, http.MethodGet, "/api/v1/earmarks", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RateLimited(t *testing.T) {
	app := newTestApp(t, 3)

	for i := 0; i < 3; i++ {
		resp, _ := app.do(t, http.MethodGet, "/api/v1/earmarks", "")
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
	}
	resp, body := app.do(t, http.MethodGet, "/api/v1/earmarks", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "SYS_004", body["error_code"])
}

// Concurrent claims on one invoice leave exactly one active earmark.
func TestAPI_ConcurrentEarmarkClaims(t *testing.T) {
	app := newTestApp(t, 100)

	const workers = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := app.earmarks.CreateEarmark(t.Context(), ports.CreateEarmarkRequest{
				InvoiceID:        "0xinv-race",
				DesignatedDomain: "10",
				TickerHash:       "0xusdc",
				MinAmount:        "1",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, rejected)

	resp, body := app.do(t, http.MethodGet, "/api/v1/earmarks?invoice_id=0xinv-race", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["count"])
}
