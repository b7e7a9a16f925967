package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing dependency the service can run without.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// CacheCheck is the name of the cache store check in a Report.
const CacheCheck = "cache"

// Service coordinates health checks.
type Service struct {
	cache   StorePinger
	timeout time.Duration
}

// New creates a Service. cache can be nil when results are not cached;
// the report then carries no checks and is always healthy.
func New(cache StorePinger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{cache: cache, timeout: timeout}
}

// Check runs health checks against all components. A broken cache only
// degrades the service: searches still go to the remote repository.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.cache != nil {
		pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.cache.Ping(pingCtx)
		cancel()
		if err != nil {
			checks[CacheCheck] = CheckError
		} else {
			checks[CacheCheck] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
