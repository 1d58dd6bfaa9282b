package handler

import (
	"net/http"

	"solver-rebalancer/internal/adapter/http/middleware"
	redisStore "solver-rebalancer/internal/adapter/storage/redis"
	"solver-rebalancer/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	TokenSvc       ports.TokenService
	Earmarks       ports.EarmarkService
	Operations     ports.OperationQueryService
	CallWindow     *redisStore.CallWindow // nil = admin calls are not throttled
	RateLimit      int64                  // admin reads per operator per minute
	HealthCheckers []ports.HealthChecker
	MetricsHandler http.Handler  // nil = /metrics not served
	Alerts         ports.Alerter // nil = operator actions are only logged
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(64 << 10))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	readBudget, writeBudget := middleware.AdminBudgets(deps.RateLimit)
	throttle := func(budget middleware.CallBudget) gin.HandlerFunc {
		if deps.CallWindow == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.Throttle(deps.CallWindow, budget, deps.Logger)
	}
	reads, writes := throttle(readBudget), throttle(writeBudget)

	v1 := r.Group("/api/v1",
		middleware.JWTAuth(deps.TokenSvc, deps.Logger),
		middleware.AuditLog(deps.Alerts, deps.Logger),
	)

	earmarkHandler := NewEarmarkHandler(deps.Earmarks)
	earmarks := v1.Group("/earmarks")
	{
		earmarks.GET("", reads, earmarkHandler.List)
		earmarks.GET("/:id", reads, earmarkHandler.Get)
		earmarks.POST("/:id/cancel", writes, earmarkHandler.Cancel)
	}

	operationHandler := NewOperationHandler(deps.Operations)
	v1.GET("/operations", reads, operationHandler.List)

	return r
}
