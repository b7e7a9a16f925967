package casecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casefinder/internal/db"
	"github.com/kailas-cloud/casefinder/internal/domain"
)

// DefaultTTL is how long an entry stays valid after it was written.
const DefaultTTL = 7 * 24 * time.Hour

var cacheKeyPrefix = domain.KeyPrefix + "case_cache:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Cache persists search results per query and expires them strictly by age.
// Reads never extend an entry's lifetime.
type Cache struct {
	store       store
	ttl         time.Duration
	now         func() time.Time
	lookupTotal *prometheus.CounterVec
	sweptTotal  *prometheus.CounterVec
	logger      *zap.Logger
}

// New creates a result cache over s. A non-positive ttl means DefaultTTL.
// lookupTotal ("result" label) and sweptTotal ("reason" label) may be nil.
func New(
	s store,
	ttl time.Duration,
	lookupTotal *prometheus.CounterVec,
	sweptTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:       s,
		ttl:         ttl,
		now:         time.Now,
		lookupTotal: lookupTotal,
		sweptTotal:  sweptTotal,
		logger:      logger,
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached results for query. The second value is false on a
// miss, on an expired entry (which is deleted) and on any read failure.
func (c *Cache) Get(ctx context.Context, query string) ([]domain.CaseResult, bool) {
	key := cacheKey(query)

	entry, err := c.load(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.incLookup("miss")
			return nil, false
		}
		c.incLookup("error")
		c.logger.Warn("Failed to read cached results", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	if entry.Expired(c.now(), c.ttl) {
		c.incLookup("expired")
		if err := c.store.Del(ctx, key); err != nil {
			c.logger.Warn("Failed to delete expired cache entry", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	c.incLookup("hit")
	return entry.Results, true
}

// Set replaces whatever is stored for query with results stamped now.
// The returned error wraps domain.ErrCacheWrite; callers are expected to log
// it and carry on without the cache.
func (c *Cache) Set(ctx context.Context, query string, results []domain.CaseResult) error {
	if results == nil {
		results = []domain.CaseResult{}
	}
	entry := domain.CacheEntry{
		Query:     query,
		Timestamp: c.now().UTC(),
		Results:   results,
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode entry: %w", domain.ErrCacheWrite, err)
	}

	key := cacheKey(query)
	if err := c.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("%w: key %s: %w", domain.ErrCacheWrite, key, err)
	}
	return nil
}

// ClearExpired deletes every expired or unreadable entry. Failures are logged,
// never returned; a listing failure ends the pass early.
func (c *Cache) ClearExpired(ctx context.Context) domain.SweepStats {
	var stats domain.SweepStats

	keys, err := c.store.Scan(ctx, cacheKeyPrefix+"*")
	if err != nil {
		c.logger.Error("Failed to list cache entries", zap.Error(err))
		stats.ListFailed = true
		return stats
	}

	now := c.now()
	for _, key := range keys {
		stats.Scanned++

		entry, err := c.load(ctx, key)
		switch {
		case errors.Is(err, db.ErrKeyNotFound):
			// Listed but unreadable as missing: either removed concurrently or a
			// dangling file store link. Del is idempotent, so clear both.
			if err := c.store.Del(ctx, key); err != nil {
				c.logger.Warn("Failed to delete missing cache entry", zap.String("key", key), zap.Error(err))
			}
		case err != nil:
			c.logger.Warn("Removing unreadable cache entry", zap.String("key", key), zap.Error(err))
			if c.remove(ctx, key, "corrupt") {
				stats.Corrupt++
			}
		case entry.Expired(now, c.ttl):
			if c.remove(ctx, key, "expired") {
				stats.Expired++
			}
		}
	}

	return stats
}

// Entries returns every readable, unexpired entry. Unreadable records are skipped;
// only a listing failure is returned.
func (c *Cache) Entries(ctx context.Context) ([]domain.CacheEntry, error) {
	keys, err := c.store.Scan(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %w", domain.ErrCacheRead, err)
	}

	now := c.now()
	entries := make([]domain.CacheEntry, 0, len(keys))
	for _, key := range keys {
		entry, err := c.load(ctx, key)
		if err != nil {
			if !errors.Is(err, db.ErrKeyNotFound) {
				c.logger.Debug("Skipping unreadable cache entry", zap.String("key", key), zap.Error(err))
			}
			continue
		}
		if entry.Expired(now, c.ttl) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// load fetches and decodes an entry. Store failures are returned as-is;
// undecodable records are reported as domain.ErrCacheRead.
func (c *Cache) load(ctx context.Context, key string) (domain.CacheEntry, error) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return domain.CacheEntry{}, err
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.CacheEntry{}, fmt.Errorf("%w: decode %s: %w", domain.ErrCacheRead, key, err)
	}
	if entry.Timestamp.IsZero() {
		return domain.CacheEntry{}, fmt.Errorf("%w: %s has no timestamp", domain.ErrCacheRead, key)
	}
	if entry.Results == nil {
		entry.Results = []domain.CaseResult{}
	}
	return entry, nil
}

func (c *Cache) remove(ctx context.Context, key, reason string) bool {
	if err := c.store.Del(ctx, key); err != nil {
		c.logger.Warn("Failed to delete cache entry",
			zap.String("key", key), zap.String("reason", reason), zap.Error(err))
		return false
	}
	if c.sweptTotal != nil {
		c.sweptTotal.WithLabelValues(reason).Inc()
	}
	return true
}

func (c *Cache) incLookup(result string) {
	if c.lookupTotal != nil {
		c.lookupTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(query string) string {
	h := sha256.Sum256([]byte(query))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
