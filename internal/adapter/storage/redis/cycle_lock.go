package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it is still held by the caller.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CycleLock is a SET NX lease that keeps two solver processes from running
// the same cycle against shared storage.
type CycleLock struct {
	client goredis.UniversalClient
	key    string
	owner  string
}

// NewCycleLock creates a lock identified by owner (usually hostname + pid).
func NewCycleLock(client goredis.UniversalClient, prefix, owner string) *CycleLock {
	return &CycleLock{
		client: client,
		key:    key(prefix, "cycle-lock"),
		owner:  owner,
	}
}

// TryAcquire takes the lease for ttl. It returns false when another owner holds it.
func (l *CycleLock) TryAcquire(ctx context.Context, ttl time.Duration) (bool, error) {
	result, err := l.client.SetArgs(ctx, l.key, l.owner, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis cycle lock acquire: %w", err)
	}
	return result == "OK", nil
}

// Release frees the lease if this owner still holds it.
func (l *CycleLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis cycle lock release: %w", err)
	}
	return nil
}
