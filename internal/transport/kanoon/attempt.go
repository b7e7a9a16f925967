package kanoon

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kailas-cloud/casefinder/internal/domain"
	"github.com/kailas-cloud/casefinder/internal/metrics"
)

const (
	// maxBodyBytes caps how much of a results page is read.
	maxBodyBytes = 8 << 20

	// challengeMarker appears on the scripting interstitial served instead of results.
	challengeMarker = "Please enable JavaScript"
)

type outcome int

const (
	outcomeOK outcome = iota
	outcomeRetryable
	outcomeFatal
)

// attemptResult is the tagged result of a single request.
type attemptResult struct {
	kind  outcome
	cases []domain.CaseResult
	err   error
}

func succeeded(cases []domain.CaseResult) attemptResult {
	return attemptResult{kind: outcomeOK, cases: cases}
}

func retryable(err error) attemptResult {
	return attemptResult{kind: outcomeRetryable, err: err}
}

func fatal(err error) attemptResult {
	return attemptResult{kind: outcomeFatal, err: err}
}

// attempt issues one request and classifies the response.
func (c *Client) attempt(ctx context.Context, factPattern string) attemptResult {
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.searchURL, http.NoBody)
	if err != nil {
		return fatal(fmt.Errorf("build request: %w", err))
	}
	q := url.Values{}
	q.Set("formInput", factPattern)
	q.Set("pagenum", "1")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	res := c.fetch(req, factPattern)
	observe(res, time.Since(start))
	return res
}

func (c *Client) fetch(req *http.Request, factPattern string) attemptResult {
	resp, err := c.http.Do(req)
	if err != nil {
		return retryable(fmt.Errorf("%w: %w", domain.ErrNetwork, err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return retryable(domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return retryable(&domain.HTTPStatusError{StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return retryable(fmt.Errorf("%w: read body: %w", domain.ErrNetwork, err))
	}
	if bytes.Contains(body, []byte(challengeMarker)) {
		return retryable(domain.ErrBlockedAccess)
	}

	cases, err := c.extract(body, factPattern)
	if err != nil {
		return retryable(fmt.Errorf("parse results page: %w", err))
	}
	return succeeded(cases)
}

func observe(res attemptResult, d time.Duration) {
	label := outcomeLabel(res)
	metrics.RemoteRequestsTotal.WithLabelValues(label).Inc()
	metrics.RemoteRequestDuration.WithLabelValues(label).Observe(d.Seconds())
}

func outcomeLabel(res attemptResult) string {
	switch {
	case res.kind == outcomeOK && len(res.cases) == 0:
		return "no_results"
	case res.kind == outcomeOK:
		return "ok"
	case isErr(res.err, domain.ErrRateLimited):
		return "rate_limited"
	case isErr(res.err, domain.ErrBlockedAccess):
		return "blocked"
	case isErr(res.err, domain.ErrHTTPStatus):
		return "http_error"
	case isErr(res.err, domain.ErrNetwork):
		return "network_error"
	default:
		return "parse_error"
	}
}
