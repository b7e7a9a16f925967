package casefinder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/casefinder/internal/db"
	"github.com/kailas-cloud/casefinder/internal/db/driver"
	"github.com/kailas-cloud/casefinder/internal/domain"
	"github.com/kailas-cloud/casefinder/internal/export"
	"github.com/kailas-cloud/casefinder/internal/repository/casecache"
	"github.com/kailas-cloud/casefinder/internal/transport/kanoon"
	searchuc "github.com/kailas-cloud/casefinder/internal/usecase/search"
	"github.com/kailas-cloud/casefinder/internal/usecase/sweeper"
)

const defaultCacheDir = "cache"

// Internal interfaces for swapping in tests.
type resultCache interface {
	Get(ctx context.Context, query string) ([]CaseResult, bool)
	Set(ctx context.Context, query string, results []CaseResult) error
	ClearExpired(ctx context.Context) SweepStats
	Entries(ctx context.Context) ([]domain.CacheEntry, error)
}

type caseFinder interface {
	FindCases(ctx context.Context, factPattern string) ([]CaseResult, error)
}

// Client is the casefinder library entry point. It is safe for concurrent use.
type Client struct {
	store  db.Store
	cache  resultCache
	finder caseFinder
	obs    *observer
}

// New creates a Client and opens its cache store.
// The provided context is used for the store readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.store.Driver == "" || cfg.store.Driver == driver.File {
		cfg.store.Driver = driver.File
		if cfg.store.Dir == "" {
			cfg.store.Dir = defaultCacheDir
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	cfg.store.Logger = obs.logger

	remote, err := kanoon.NewClient(&kanoon.Config{
		BaseURL:     cfg.baseURL,
		UserAgent:   cfg.userAgent,
		Timeout:     cfg.timeout,
		RetryDelay:  cfg.retryDelay,
		MaxAttempts: cfg.maxAttempts,
		MaxResults:  cfg.maxResults,
		HTTPClient:  cfg.httpClient,
		Logger:      obs.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("casefinder: %w", err)
	}

	store, err := driver.Open(ctx, cfg.store)
	if err != nil {
		return nil, fmt.Errorf("casefinder: %w", err)
	}

	cache := casecache.New(store, cfg.ttl, obs.lookupCounter(), obs.sweptCounter(), obs.logger)
	return &Client{
		store:  store,
		cache:  cache,
		finder: searchuc.New(cache, remote, obs.logger),
		obs:    obs,
	}, nil
}

// Close releases the cache store.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks cache store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// FindCases returns up to the configured number of cases for factPattern,
// best match first. Cached results are served without contacting the
// upstream search. The error is a *SearchFailure when every attempt failed.
func (c *Client) FindCases(ctx context.Context, factPattern string) (cases []CaseResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("find_cases", start, err) }()

	return c.finder.FindCases(ctx, factPattern)
}

// Lookup returns the cached results for query, if present and not expired.
func (c *Client) Lookup(ctx context.Context, query string) ([]CaseResult, bool) {
	start := time.Now()
	defer c.obs.observe("lookup", start, nil)

	return c.cache.Get(ctx, query)
}

// Store caches results for query, replacing any previous entry.
func (c *Client) Store(ctx context.Context, query string, results []CaseResult) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("store", start, err) }()

	return c.cache.Set(ctx, query, results)
}

// ClearExpired removes expired and unreadable cache entries.
func (c *Client) ClearExpired(ctx context.Context) SweepStats {
	start := time.Now()
	stats := c.cache.ClearExpired(ctx)

	var err error
	if stats.ListFailed {
		err = errors.New("list cache entries failed")
	}
	c.obs.observe("clear_expired", start, err)
	return stats
}

// Entries lists every readable, unexpired cache entry.
func (c *Client) Entries(ctx context.Context) (entries []CacheEntry, err error) {
	start := time.Now()
	defer func() { c.obs.observe("entries", start, err) }()

	return c.cache.Entries(ctx)
}

// ExportParquet writes every unexpired cached result to w as a parquet file,
// one row per case, and returns the number of rows written.
func (c *Client) ExportParquet(ctx context.Context, w io.Writer) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("export", start, err) }()

	entries, err := c.cache.Entries(ctx)
	if err != nil {
		return 0, err
	}
	return export.WriteParquet(w, entries)
}

// RunSweeper calls ClearExpired now and then every interval until ctx is done.
// A non-positive interval means one hour.
func (c *Client) RunSweeper(ctx context.Context, interval time.Duration) error {
	return sweeper.New(cleanerFunc(c.ClearExpired), interval, c.obs.logger).Run(ctx)
}

type cleanerFunc func(ctx context.Context) SweepStats

func (f cleanerFunc) ClearExpired(ctx context.Context) SweepStats { return f(ctx) }
