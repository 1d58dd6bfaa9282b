package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokenSvc ports.TokenService) *gin.Engine {
	router := gin.New()
	router.GET("/test", JWTAuth(tokenSvc, zerolog.Nop()), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxSubject))
	})
	return router
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := newAuthRouter(mocks.NewMockTokenService(ctrl))

	for _, header := range []string{"", "Basic abc", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	tokenSvc.EXPECT().Validate("bad").Return(nil, errors.New("signature is invalid"))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	newAuthRouter(tokenSvc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_001")
}

func TestJWTAuth_SetsSubject(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	tokenSvc.EXPECT().Validate("good").Return(&ports.TokenClaims{Subject: "ops-alice", TokenID: "t1"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	newAuthRouter(tokenSvc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops-alice", w.Body.String())
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(HeaderRequestID))
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(zerolog.Nop()))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_002")
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(zerolog.Nop()))
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestLogger_QuietRoutes(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestLogger(zerolog.New(&buf).Level(zerolog.InfoLevel)))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/earmarks", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/earmarks", nil))
	assert.Contains(t, buf.String(), `"route":"/api/v1/earmarks"`)
}

func TestAuditLog_AlertsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlerter(ctrl)
	alerts.EXPECT().Alert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, a ports.Alert) {
		assert.Equal(t, ports.AlertOperatorAction, a.Event)
		assert.Equal(t, "e-1", a.Subject)
		assert.Equal(t, "EARMARK_CANCEL", a.Reason)
		assert.Equal(t, "ops-alice", a.Fields["operator"])
	})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(CtxSubject, "ops-alice")
		c.Next()
	}, AuditLog(alerts, zerolog.Nop()))
	router.POST("/api/v1/earmarks/:id/cancel", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/earmarks/e-1/cancel", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditLog_SkipsFailuresAndReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlerter(ctrl) // no calls expected

	router := gin.New()
	router.Use(AuditLog(alerts, zerolog.Nop()))
	router.POST("/api/v1/earmarks/:id/cancel", func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})
	router.GET("/api/v1/earmarks/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/v1/earmarks/e-1/cancel", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/earmarks/e-1", nil),
	} {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func TestAuditLog_NilAlerter(t *testing.T) {
	router := gin.New()
	router.Use(AuditLog(nil, zerolog.Nop()))
	router.POST("/api/v1/earmarks/:id/cancel", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/earmarks/e-1/cancel", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
