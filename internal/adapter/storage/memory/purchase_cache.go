package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solver-rebalancer/internal/core/domain"
)

// PurchaseCache implements ports.PurchaseCache for single-process runs
// without Redis. Entries older than ttl are dropped on read.
type PurchaseCache struct {
	mu      sync.Mutex
	entries map[string]purchaseEntry
	ttl     time.Duration
	now     func() time.Time
}

type purchaseEntry struct {
	purchase domain.Purchase
	storedAt time.Time
}

// NewPurchaseCache creates an empty cache.
func NewPurchaseCache(ttl time.Duration) *PurchaseCache {
	return &PurchaseCache{
		entries: make(map[string]purchaseEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *PurchaseCache) GetAll(ctx context.Context) ([]domain.Purchase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]domain.Purchase, 0, len(c.entries))
	for id, e := range c.entries {
		if c.ttl > 0 && now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, id)
			continue
		}
		out = append(out, e.purchase)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].InvoiceID < out[j].InvoiceID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (c *PurchaseCache) Add(ctx context.Context, purchases ...domain.Purchase) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, p := range purchases {
		p.Destinations = append([]domain.DomainID(nil), p.Destinations...)
		c.entries[p.InvoiceID] = purchaseEntry{purchase: p, storedAt: now}
	}
	return nil
}

func (c *PurchaseCache) Remove(ctx context.Context, invoiceIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range invoiceIDs {
		delete(c.entries, id)
	}
	return nil
}
