package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CallWindow counts admin API calls per operator over a sliding window.
// Each admitted call is a member of a sorted set scored by its arrival time
// in milliseconds, so the budget never resets all at once on a boundary.
type CallWindow struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
	seq    atomic.Uint64
}

// NewCallWindow creates a CallWindow whose keys live under prefix.
func NewCallWindow(client goredis.UniversalClient, prefix string) *CallWindow {
	return &CallWindow{
		client: client,
		prefix: key(prefix, "calls"),
		now:    time.Now,
	}
}

// Admission is the outcome of one Admit call.
type Admission struct {
	Allowed bool
	Limit   int64
	Used    int64
	// FreesAt is when the oldest counted call leaves the window.
	FreesAt time.Time
}

// Remaining is how many more calls the window admits right now.
func (a Admission) Remaining() int64 {
	if a.Used >= a.Limit {
		return 0
	}
	return a.Limit - a.Used
}

// Admit counts one call by caller against group unless that would exceed
// limit calls within window. Refused calls are not counted. Callers racing
// at the limit may both be refused.
func (w *CallWindow) Admit(ctx context.Context, group, caller string, limit int64, window time.Duration) (Admission, error) {
	now := w.now()
	k := key(w.prefix, group, keySegment(caller))
	member := strconv.FormatInt(now.UnixNano(), 36) + "." + strconv.FormatUint(w.seq.Add(1), 36)
	cutoff := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)

	var (
		used   *goredis.IntCmd
		oldest *goredis.ZSliceCmd
	)
	_, err := w.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, k, "-inf", cutoff)
		p.ZAdd(ctx, k, goredis.Z{Score: float64(now.UnixMilli()), Member: member})
		used = p.ZCard(ctx, k)
		oldest = p.ZRangeWithScores(ctx, k, 0, 0)
		p.PExpire(ctx, k, window)
		return nil
	})
	if err != nil {
		return Admission{}, fmt.Errorf("admit call on %s: %w", k, err)
	}

	a := Admission{Allowed: used.Val() <= limit, Limit: limit, Used: used.Val(), FreesAt: now.Add(window)}
	if first := oldest.Val(); len(first) > 0 {
		a.FreesAt = time.UnixMilli(int64(first[0].Score)).Add(window)
	}
	if !a.Allowed {
		// best effort; a refused call left behind ages out with the window
		w.client.ZRem(ctx, k, member)
		a.Used--
	}
	return a, nil
}

// keySegment keeps a caller id from spilling into neighbouring key segments.
func keySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
