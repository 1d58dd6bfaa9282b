package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/internal/core/ports/mocks"
	"solver-rebalancer/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sampleEarmark(status domain.EarmarkStatus) *domain.Earmark {
	return &domain.Earmark{
		ID:               uuid.New(),
		InvoiceID:        "0xinv1",
		DesignatedDomain: "10",
		TickerHash:       "0xusdc",
		MinAmount:        uint256.NewInt(5_000_000),
		Status:           status,
		CreatedAt:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2024, 5, 1, 0, 1, 0, 0, time.UTC),
	}
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "body: %s", w.Body.String())
	return data
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

// --- Earmark Handler Tests ---

func TestListEarmarks_ParsesFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockEarmarkService(ctrl)
	h := NewEarmarkHandler(svc)

	e := sampleEarmark(domain.EarmarkStatusPending)
	svc.EXPECT().ListEarmarks(gomock.Any(), ports.EarmarkListParams{
		Statuses:  []domain.EarmarkStatus{domain.EarmarkStatusPending, domain.EarmarkStatusReady},
		InvoiceID: "0xinv1",
		Limit:     defaultListLimit,
	}).Return([]domain.Earmark{*e}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/earmarks?status=pending,ready&invoice_id=0xinv1", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(1), data["count"])
	items := data["items"].([]interface{})
	first := items[0].(map[string]interface{})
	assert.Equal(t, e.ID.String(), first["id"])
	assert.Equal(t, "5000000", first["min_amount"])
	assert.Equal(t, "PENDING", first["status"])
}

func TestListEarmarks_EmptyIsArray(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockEarmarkService(ctrl)
	svc.EXPECT().ListEarmarks(gomock.Any(), gomock.Any()).Return(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/earmarks", nil)
	NewEarmarkHandler(svc).List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
}

func TestListEarmarks_InvalidStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewEarmarkHandler(mocks.NewMockEarmarkService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/earmarks?status=SETTLED", nil)
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SYS_003", decodeErrorCode(t, w))
}

func TestGetEarmark(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockEarmarkService(ctrl)
	h := NewEarmarkHandler(svc)

	found := sampleEarmark(domain.EarmarkStatusReady)
	missing := uuid.New()
	svc.EXPECT().GetEarmark(gomock.Any(), found.ID).Return(found, nil)
	svc.EXPECT().GetEarmark(gomock.Any(), missing).Return(nil, apperror.ErrNotFound("Earmark"))

	tests := []struct {
		name     string
		id       string
		wantCode int
	}{
		{"found", found.ID.String(), http.StatusOK},
		{"missing", missing.String(), http.StatusNotFound},
		{"malformed id", "not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/earmarks/"+tt.id, nil)
			c.Params = gin.Params{{Key: "id", Value: tt.id}}

			h.Get(c)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func cancelRequest(t *testing.T, id string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/earmarks/"+id+"/cancel", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: id}}
	return c, w
}

func TestCancelEarmark_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockEarmarkService(ctrl)
	h := NewEarmarkHandler(svc)

	cancelled := sampleEarmark(domain.EarmarkStatusCancelled)
	gomock.InOrder(
		svc.EXPECT().UpdateStatus(gomock.Any(), cancelled.ID, domain.EarmarkStatusCancelled, "route &lt;paused&gt;").Return(nil),
		svc.EXPECT().GetEarmark(gomock.Any(), cancelled.ID).Return(cancelled, nil),
	)

	c, w := cancelRequest(t, cancelled.ID.String(), map[string]string{"reason": "  route <paused> "})
	h.Cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CANCELLED", decodeData(t, w)["status"])
}

func TestCancelEarmark_MissingReason(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewEarmarkHandler(mocks.NewMockEarmarkService(ctrl))

	c, w := cancelRequest(t, uuid.NewString(), map[string]string{})
	h.Cancel(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelEarmark_TerminalIsConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockEarmarkService(ctrl)
	h := NewEarmarkHandler(svc)

	id := uuid.New()
	svc.EXPECT().UpdateStatus(gomock.Any(), id, domain.EarmarkStatusCancelled, "manual").
		Return(apperror.ErrInvalidTransition("COMPLETED", "CANCELLED"))

	c, w := cancelRequest(t, id.String(), map[string]string{"reason": "manual"})
	h.Cancel(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "REB_002", decodeErrorCode(t, w))
}

// --- Operation Handler Tests ---

func TestListOperations_ParsesFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOperationQueryService(ctrl)
	h := NewOperationHandler(svc)

	earmarkID := uuid.New()
	op := domain.RebalanceOperation{
		ID:          uuid.New(),
		EarmarkID:   &earmarkID,
		Origin:      "1",
		Destination: "10",
		TickerHash:  "0xusdc",
		Amount:      uint256.NewInt(42),
		Bridge:      "across",
		Status:      domain.OperationStatusAwaitingCallback,
	}
	svc.EXPECT().ListOperations(gomock.Any(), ports.OperationListParams{
		Statuses:   []domain.OperationStatus{domain.OperationStatusAwaitingCallback},
		EarmarkID:  &earmarkID,
		TickerHash: domain.NormalizeTicker("0xUSDC"),
		Limit:      20,
	}).Return([]domain.RebalanceOperation{op}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/api/v1/operations?status=awaiting_callback&ticker=0xUSDC&limit=20&earmark_id="+earmarkID.String(), nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	items := decodeData(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "42", items[0].(map[string]interface{})["amount"])
}

func TestListOperations_EarmarkAndUnlinkedConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewOperationHandler(mocks.NewMockOperationQueryService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/operations?unlinked=true&earmark_id="+uuid.NewString(), nil)
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOperations_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOperationQueryService(ctrl)
	svc.EXPECT().ListOperations(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrStorage(errors.New("conn reset")))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/operations?unlinked=true", nil)
	NewOperationHandler(svc).List(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SYS_001", decodeErrorCode(t, w))
}

// --- Health & Router Tests ---

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	pg := mocks.NewMockHealthChecker(ctrl)
	rd := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Name().Return("postgres").AnyTimes()
	rd.EXPECT().Name().Return("redis").AnyTimes()

	pg.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)
	rd.EXPECT().Ping(gomock.Any()).Return(nil)
	rd.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

	router := gin.New()
	router.GET("/health", HealthCheck(pg, rd))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func newTestRouter(t *testing.T) (*gin.Engine, *mocks.MockTokenService, *mocks.MockEarmarkService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	earmarks := mocks.NewMockEarmarkService(ctrl)
	router := SetupRouter(RouterDeps{
		TokenSvc:   tokenSvc,
		Earmarks:   earmarks,
		Operations: mocks.NewMockOperationQueryService(ctrl),
		RateLimit:  60,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("solver_cycles_total 1\n"))
		}),
		Logger: zerolog.Nop(),
	})
	return router, tokenSvc, earmarks
}

func TestRouter_RequiresToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/earmarks", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_AuthenticatedList(t *testing.T) {
	router, tokenSvc, earmarks := newTestRouter(t)
	tokenSvc.EXPECT().Validate("tok").Return(&ports.TokenClaims{Subject: "ops"}, nil)
	earmarks.EXPECT().ListEarmarks(gomock.Any(), gomock.Any()).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/earmarks", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "solver_cycles_total")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/spec", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/earmarks/{id}/cancel")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/swagger/spec", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}
