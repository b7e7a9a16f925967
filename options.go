package casefinder

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casefinder/internal/db/driver"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	store driver.Options

	baseURL     string
	userAgent   string
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	maxResults  int

	ttl time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithFileCache keeps cached results as JSON files in dir. This is the default,
// with dir "cache".
func WithFileCache(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.Driver = driver.File
		c.store.Dir = dir
	})
}

// WithBadger keeps cached results in a BadgerDB database at dir.
func WithBadger(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.Driver = driver.Badger
		c.store.Dir = dir
	})
}

// WithRedis keeps cached results in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.Driver = driver.Redis
		c.store.Addrs = []string{addr}
		c.store.Password = password
	})
}

// WithValkey keeps cached results in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.Driver = driver.Valkey
		c.store.Addrs = []string{addr}
		c.store.Password = password
	})
}

// WithReadinessTimeout bounds how long New waits for the cache store.
// Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.ReadinessTimeout = d
	})
}

// WithOrigin points searches at another deployment of the search page,
// for example a mirror or a test server. Default: https://indiankanoon.org.
func WithOrigin(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = baseURL
	})
}

// WithUserAgent overrides the browser-like User-Agent sent upstream.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithHTTPClient sets the client used for upstream requests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithRetry sets the attempt budget and the base backoff delay.
// The n-th retry waits n*delay. Defaults: 3 attempts, 2s.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxAttempts = maxAttempts
		c.retryDelay = delay
	})
}

// WithAttemptTimeout bounds a single upstream request. Default: 30s.
func WithAttemptTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithMaxResults caps the number of returned cases. Default: 10.
func WithMaxResults(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxResults = n
	})
}

// WithTTL sets how long a cached result stays valid. Default: 7 days.
func WithTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.ttl = ttl
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers library metrics (operation counts, durations and
// cache lookups) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
