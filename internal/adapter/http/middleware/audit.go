package middleware

import (
	"net/http"
	"strconv"
	"time"

	"solver-rebalancer/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuditLog records successful operator writes in the log and, when an
// alerter is configured, as an OPERATOR_ACTION alert.
func AuditLog(alerts ports.Alerter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}

		action, resourceType := mapPathToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}
		subject := c.Param("id")

		log.Info().
			Str("action", action).
			Str("resource_type", resourceType).
			Str("resource_id", subject).
			Str("operator", c.GetString(CtxSubject)).
			Str("request_id", c.GetString(CtxRequestID)).
			Msg("operator action")

		if alerts == nil {
			return
		}
		alerts.Alert(c.Request.Context(), ports.Alert{
			Event:   ports.AlertOperatorAction,
			Subject: subject,
			Reason:  action,
			Fields: map[string]string{
				"resource_type": resourceType,
				"operator":      c.GetString(CtxSubject),
				"client_ip":     c.ClientIP(),
				"status":        strconv.Itoa(status),
			},
			At: time.Now().UTC(),
		})
	}
}

func mapPathToAction(route, method string) (action, resourceType string) {
	switch {
	case route == "/api/v1/earmarks/:id/cancel" && method == http.MethodPost:
		return "EARMARK_CANCEL", "earmark"
	}
	return "", ""
}
