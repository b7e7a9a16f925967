package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casefinder/internal/domain"
	logpkg "github.com/kailas-cloud/casefinder/internal/logger"
	healthuc "github.com/kailas-cloud/casefinder/internal/usecase/health"
)

// maxSearchBody caps the size of a POST /search body.
const maxSearchBody = 64 << 10

// WelcomeMessage is returned by GET /.
const WelcomeMessage = "Welcome to Legal Case Finder API"

// CaseFinder answers fact-pattern queries.
type CaseFinder interface {
	FindCases(ctx context.Context, factPattern string) ([]domain.CaseResult, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// RateLimits holds per-client request budgets per minute. Zero disables a limit.
type RateLimits struct {
	SearchPerMinute int
	RootPerMinute   int
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	FactPattern string `json:"fact_pattern"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Server serves the case finder HTTP API.
type Server struct {
	finder CaseFinder
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server. health can be nil.
func NewServer(finder CaseFinder, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{finder: finder, health: health, logger: logger}
}

// Mount registers the API routes on r, each with its own per-client rate limit.
func (s *Server) Mount(r gochi.Router, limits RateLimits) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.With(rateLimit(limits.RootPerMinute)).Get("/", s.Root)
	r.With(rateLimit(limits.SearchPerMinute)).Post("/search", s.SearchCases)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": WelcomeMessage,
		"status":  string(healthuc.Healthy),
	})
}

// SearchCases handles POST /search.
func (s *Server) SearchCases(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSearchBody)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
			return
		}
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.FactPattern) == "" {
		WriteError(w, http.StatusBadRequest, CodeValidationFailed, "fact_pattern must not be empty")
		return
	}

	results, err := s.finder.FindCases(r.Context(), req.FactPattern)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if results == nil {
		results = []domain.CaseResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// HealthCheck handles GET /health. A degraded cache still answers 200:
// searches keep working without it.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: string(healthuc.Healthy), Checks: map[string]string{}}
	if s.health != nil {
		report := s.health.Check(r.Context())
		resp.Status = string(report.Status)
		for k, v := range report.Checks {
			resp.Checks[k] = string(v)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if l, ok := logpkg.Lookup(r.Context()); ok {
		return l
	}
	return s.logger
}

// rateLimit limits requests per client IP over a one minute window.
func rateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later")
		}),
	)
}
