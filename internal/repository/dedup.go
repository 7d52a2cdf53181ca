package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Telegram retries an unacknowledged update for up to a day.
const DefaultDedupTTL = 24 * time.Hour

// RedisDeduper records update ids with SETNX so every replica agrees on
// which update was first.
type RedisDeduper struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisDeduper creates a Redis-backed deduper.
func NewRedisDeduper(client redis.UniversalClient, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: "amitbot:update:", ttl: ttl}
}

// FirstSeen marks updateID as handled and reports whether it was new.
func (d *RedisDeduper) FirstSeen(ctx context.Context, updateID int64) (bool, error) {
	ok, err := d.client.SetNX(ctx, fmt.Sprintf("%s%d", d.prefix, updateID), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

// MemoryDeduper is the single-instance fallback when no Redis is configured.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[int64]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryDeduper creates an in-process deduper.
func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{
		seen: make(map[int64]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// FirstSeen marks updateID as handled and reports whether it was new.
func (d *MemoryDeduper) FirstSeen(ctx context.Context, updateID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if at, ok := d.seen[updateID]; ok && now.Sub(at) < d.ttl {
		return false, nil
	}
	d.seen[updateID] = now

	// Expired ids are pruned lazily.
	if len(d.seen)%256 == 0 {
		for id, at := range d.seen {
			if now.Sub(at) >= d.ttl {
				delete(d.seen, id)
			}
		}
	}
	return true, nil
}
