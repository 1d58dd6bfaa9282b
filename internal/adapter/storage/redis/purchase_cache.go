package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"solver-rebalancer/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// PurchaseCache implements ports.PurchaseCache.
// Purchases live in one hash keyed by invoice id; a marker key per invoice
// carries the TTL and a purchase whose marker is gone is treated as absent.
type PurchaseCache struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewPurchaseCache creates a Redis-backed purchase cache.
func NewPurchaseCache(client goredis.UniversalClient, prefix string, ttl time.Duration) *PurchaseCache {
	return &PurchaseCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *PurchaseCache) hashKey() string {
	return key(c.prefix, "purchases")
}

func (c *PurchaseCache) markerKey(invoiceID string) string {
	return key(c.prefix, "purchase", invoiceID)
}

// GetAll returns live purchases ordered by creation time and prunes aged-out entries.
func (c *PurchaseCache) GetAll(ctx context.Context) ([]domain.Purchase, error) {
	raw, err := c.client.HGetAll(ctx, c.hashKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis purchases get: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pipe := c.client.Pipeline()
	checks := make([]*goredis.IntCmd, len(ids))
	for i, id := range ids {
		checks[i] = pipe.Exists(ctx, c.markerKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("redis purchases markers: %w", err)
	}

	var (
		out   []domain.Purchase
		stale []string
	)
	for i, id := range ids {
		if checks[i].Val() == 0 {
			stale = append(stale, id)
			continue
		}
		var p domain.Purchase
		if err := json.Unmarshal([]byte(raw[id]), &p); err != nil {
			stale = append(stale, id)
			continue
		}
		out = append(out, p)
	}

	if len(stale) > 0 {
		if err := c.client.HDel(ctx, c.hashKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("redis purchases prune: %w", err)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Add stores purchases, replacing any entry for the same invoice.
func (c *PurchaseCache) Add(ctx context.Context, purchases ...domain.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, p := range purchases {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding purchase %s: %w", p.InvoiceID, err)
		}
		pipe.HSet(ctx, c.hashKey(), p.InvoiceID, data)
		pipe.Set(ctx, c.markerKey(p.InvoiceID), 1, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis purchases add: %w", err)
	}
	return nil
}

// Remove drops purchases for the given invoices.
func (c *PurchaseCache) Remove(ctx context.Context, invoiceIDs ...string) error {
	if len(invoiceIDs) == 0 {
		return nil
	}
	markers := make([]string, len(invoiceIDs))
	for i, id := range invoiceIDs {
		markers[i] = c.markerKey(id)
	}
	pipe := c.client.TxPipeline()
	pipe.HDel(ctx, c.hashKey(), invoiceIDs...)
	pipe.Del(ctx, markers...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis purchases remove: %w", err)
	}
	return nil
}
