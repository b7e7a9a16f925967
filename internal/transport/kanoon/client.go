// Package kanoon queries the Indian Kanoon case-law search page and turns the
// returned HTML into scored case results.
package kanoon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casefinder/internal/domain"
	"github.com/kailas-cloud/casefinder/internal/domain/relevance"
	"github.com/kailas-cloud/casefinder/internal/metrics"
)

// Defaults for the public search endpoint.
const (
	DefaultBaseURL     = "https://indiankanoon.org"
	DefaultSearchPath  = "/search/"
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultTimeout     = 30 * time.Second
	DefaultRetryDelay  = 2 * time.Second
	DefaultMaxAttempts = 3
	DefaultMaxResults  = 10
)

// Scorer rates candidate text against the query, returning a value in [0, 1].
type Scorer func(query, text string) float64

// Config holds the search client settings. Zero values take the defaults above.
type Config struct {
	BaseURL     string
	SearchPath  string
	UserAgent   string
	Timeout     time.Duration
	RetryDelay  time.Duration
	MaxAttempts int
	MaxResults  int
	HTTPClient  *http.Client
	Scorer      Scorer
	Logger      *zap.Logger
}

// Client searches the repository. It keeps no state between calls.
type Client struct {
	http        *http.Client
	origin      *url.URL
	searchURL   string
	userAgent   string
	timeout     time.Duration
	retryDelay  time.Duration
	maxAttempts int
	maxResults  int
	score       Scorer
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *zap.Logger
}

// NewClient validates cfg and creates a client.
func NewClient(cfg *Config) (*Client, error) {
	c := &Client{
		http:        cfg.HTTPClient,
		userAgent:   cfg.UserAgent,
		timeout:     cfg.Timeout,
		retryDelay:  cfg.RetryDelay,
		maxAttempts: cfg.MaxAttempts,
		maxResults:  cfg.MaxResults,
		score:       cfg.Scorer,
		sleep:       sleepContext,
		logger:      cfg.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.maxResults <= 0 {
		c.maxResults = DefaultMaxResults
	}
	if c.score == nil {
		c.score = relevance.Score
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	origin, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", base, err)
	}
	if origin.Scheme != "http" && origin.Scheme != "https" || origin.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", base)
	}
	c.origin = origin

	path := cfg.SearchPath
	if path == "" {
		path = DefaultSearchPath
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse search path %q: %w", path, err)
	}
	c.searchURL = origin.ResolveReference(ref).String()

	return c, nil
}

// Search returns up to the configured number of results for factPattern,
// ordered by descending score. Every failed attempt is retried after a
// linearly growing delay; once the budget is spent the error is a
// *domain.SearchFailure wrapping the last attempt's error.
//
// An attempt that has started is not cut short by ctx. Cancelling ctx does
// abort the wait between attempts.
func (c *Client) Search(ctx context.Context, factPattern string) ([]domain.CaseResult, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		res := c.attempt(ctx, factPattern)

		switch res.kind {
		case outcomeOK:
			if attempt > 1 {
				c.logger.Info("Search succeeded after retry", zap.Int("attempt", attempt))
			}
			return rank(res.cases, c.maxResults), nil
		case outcomeFatal:
			metrics.SearchFailuresTotal.Inc()
			return nil, domain.NewSearchFailure(attempt, res.err)
		}

		lastErr = res.err
		if attempt == c.maxAttempts {
			break
		}

		delay := c.retryDelay * time.Duration(attempt)
		c.logger.Warn("Search attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(res.err),
		)
		metrics.SearchRetriesTotal.Inc()

		if err := c.sleep(ctx, delay); err != nil {
			metrics.SearchFailuresTotal.Inc()
			return nil, domain.NewSearchFailure(attempt, fmt.Errorf("retry wait: %w (last error: %w)", err, lastErr))
		}
	}

	metrics.SearchFailuresTotal.Inc()
	c.logger.Error("Search failed, retries exhausted",
		zap.Int("attempts", c.maxAttempts), zap.Error(lastErr))
	return nil, domain.NewSearchFailure(c.maxAttempts, lastErr)
}

// rank orders by score, highest first, keeping document order for ties,
// and truncates to limit.
func rank(cases []domain.CaseResult, limit int) []domain.CaseResult {
	sort.SliceStable(cases, func(i, j int) bool {
		return cases[i].SimilarityScore > cases[j].SimilarityScore
	})
	if len(cases) > limit {
		cases = cases[:limit]
	}
	return cases
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
