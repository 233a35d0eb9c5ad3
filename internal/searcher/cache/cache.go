// Package cache stores serialized query results in Redis keyed by operation
// and normalized argument. Concurrent misses for the same key are collapsed
// into one computation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/redis"
)

const keyPrefix = "query:"

// Backend is the key-value store behind the cache; *pkgredis.Client
// satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
	m       *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache over backend. A nil backend disables storage but still
// collapses concurrent identical queries. m may be nil.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
		m:       m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// GetOrCompute returns the cached value for (op, arg) or computes, stores and
// returns it. The boolean reports a cache hit. Errors from compute are
// returned as is and never cached.
func GetOrCompute[T any](ctx context.Context, c *QueryCache, op, arg string, compute func() (T, error)) (T, bool, error) {
	key := buildKey(op, arg)
	var result T
	if c.get(ctx, key, &result) {
		return result, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		var cached T
		if c.load(ctx, key, &cached) {
			return cached, nil
		}
		computed, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, computed)
		return computed, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return val.(T), false, nil
}

// Invalidate deletes every cached query result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if c.backend == nil {
		return nil
	}
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) get(ctx context.Context, key string, dst any) bool {
	if c.backend == nil {
		return false
	}
	if !c.load(ctx, key, dst) {
		c.miss()
		return false
	}
	c.hits.Add(1)
	if c.m != nil {
		c.m.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "key", key)
	return true
}

// load reads key into dst without touching the hit and miss counters.
func (c *QueryCache) load(ctx context.Context, key string, dst any) bool {
	if c.backend == nil {
		return false
	}
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return false
	}
	return true
}

func (c *QueryCache) set(ctx context.Context, key string, value any) {
	if c.backend == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.m != nil {
		c.m.CacheMissesTotal.Inc()
	}
}

func buildKey(op, arg string) string {
	normalized := strings.ToLower(strings.TrimSpace(arg))
	hash := sha256.Sum256([]byte(op + "|" + normalized))
	return fmt.Sprintf("%s%s:%x", keyPrefix, op, hash[:16])
}
