package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"solver-rebalancer/internal/core/ports"

	"github.com/rs/zerolog"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Alert-Signature"

var alertRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookAlerter implements ports.Alerter by POSTing signed JSON to an
// operator endpoint. Each alert is delivered on its own goroutine.
type WebhookAlerter struct {
	url       string
	secret    string
	client    HTTPClient
	intervals []time.Duration
	log       zerolog.Logger
	now       func() time.Time
	wg        sync.WaitGroup
}

// NewWebhookAlerter creates a new alerter. An empty url disables delivery.
func NewWebhookAlerter(url, secret string, client HTTPClient, log zerolog.Logger) *WebhookAlerter {
	return &WebhookAlerter{
		url:       url,
		secret:    secret,
		client:    client,
		intervals: alertRetryIntervals,
		log:       log,
		now:       time.Now,
	}
}

// Alert enqueues alert for delivery.
func (a *WebhookAlerter) Alert(_ context.Context, alert ports.Alert) {
	if a == nil || a.url == "" {
		return
	}
	if alert.At.IsZero() {
		alert.At = a.now().UTC()
	}

	body, err := json.Marshal(alert)
	if err != nil {
		a.log.Error().Err(err).Str("event", alert.Event).Msg("alert: failed to marshal payload")
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.deliverWithRetries(body, alert)
	}()
}

// Wait blocks until every enqueued alert was delivered or gave up.
func (a *WebhookAlerter) Wait() {
	if a == nil {
		return
	}
	a.wg.Wait()
}

func (a *WebhookAlerter) deliverWithRetries(body []byte, alert ports.Alert) {
	signature := Sign(a.secret, body)

	for attempt := 0; attempt <= len(a.intervals); attempt++ {
		if attempt > 0 {
			time.Sleep(a.intervals[attempt-1])
		}

		req, err := http.NewRequest(http.MethodPost, a.url, bytes.NewReader(body))
		if err != nil {
			a.log.Error().Err(err).Str("event", alert.Event).Msg("alert: failed to create request")
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if a.secret != "" {
			req.Header.Set(SignatureHeader, signature)
		}

		resp, err := a.client.Do(req)
		if err != nil {
			a.log.Warn().Err(err).Str("event", alert.Event).Int("attempt", attempt+1).Msg("alert: delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			a.log.Debug().Str("event", alert.Event).Str("subject", alert.Subject).Int("attempt", attempt+1).Msg("alert: delivered")
			return
		}

		a.log.Warn().Str("event", alert.Event).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("alert: non-2xx response, retrying")
	}

	a.log.Error().Str("event", alert.Event).Str("subject", alert.Subject).Msg("alert: all retry attempts exhausted")
}

// Sign computes HMAC-SHA256 of payload using secret, hex encoded.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against payload in constant time.
func VerifySignature(secret string, payload []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, payload)), []byte(signature))
}
