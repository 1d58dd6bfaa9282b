package middleware

import (
	"strconv"
	"time"

	redisStore "solver-rebalancer/internal/adapter/storage/redis"
	"solver-rebalancer/pkg/apperror"
	"solver-rebalancer/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CallBudget caps how many admin calls one operator makes per window for a
// group of routes.
type CallBudget struct {
	Group  string
	Calls  int64
	Window time.Duration
}

// AdminBudgets splits a per-minute call budget into reads and writes.
// Writes cancel earmarks, so they get a sixth of it, never less than one.
func AdminBudgets(callsPerMinute int64) (read, write CallBudget) {
	writes := max(callsPerMinute/6, 1)
	return CallBudget{Group: "admin_read", Calls: callsPerMinute, Window: time.Minute},
		CallBudget{Group: "admin_write", Calls: writes, Window: time.Minute}
}

// Throttle refuses calls beyond budget for the calling operator with a 429
// envelope. It must run after JWTAuth; unauthenticated callers are counted
// by client IP. When Redis is unreachable calls pass and a warning is logged.
func Throttle(calls *redisStore.CallWindow, budget CallBudget, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := calls.Admit(c.Request.Context(), budget.Group, caller(c), budget.Calls, budget.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", budget.Group).Msg("call budget unavailable, letting call through")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(a.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(a.Remaining(), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(a.FreesAt.Unix(), 10))
		if a.Allowed {
			c.Next()
			return
		}

		wait := max(int64(time.Until(a.FreesAt).Seconds()), 1)
		c.Header("Retry-After", strconv.FormatInt(wait, 10))
		log.Info().
			Str("group", budget.Group).
			Str("subject", c.GetString(CtxSubject)).
			Int64("used", a.Used).
			Msg("operator over call budget")
		response.Error(c, apperror.ErrRateLimitExceeded())
		c.Abort()
	}
}

func caller(c *gin.Context) string {
	if sub := c.GetString(CtxSubject); sub != "" {
		return "sub:" + sub
	}
	return "ip:" + c.ClientIP()
}
