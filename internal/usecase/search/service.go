package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casefinder/internal/domain"
	logpkg "github.com/kailas-cloud/casefinder/internal/logger"
)

// Service answers fact-pattern queries from the cache, falling back to the remote search.
type Service struct {
	cache  Cache
	remote Searcher
	logger *zap.Logger
}

// New creates a search service. cache can be nil, in which case every call goes remote.
func New(cache Cache, remote Searcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cache: cache, remote: remote, logger: logger}
}

// FindCases returns cached results for factPattern when present. Otherwise it runs the
// remote search and caches what it found, empty lists included. It fails only when the
// cache has nothing and the remote search fails.
func (s *Service) FindCases(ctx context.Context, factPattern string) ([]domain.CaseResult, error) {
	if strings.TrimSpace(factPattern) == "" {
		return nil, fmt.Errorf("%w: fact pattern is empty", domain.ErrInvalidQuery)
	}
	log := s.loggerFor(ctx)

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, factPattern); ok {
			log.Debug("Serving cached results", zap.Int("results", len(cached)))
			return cached, nil
		}
	}

	results, err := s.remote.Search(ctx, factPattern)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, factPattern, results); err != nil {
			log.Warn("Caching search results failed", zap.Error(err))
		}
	}
	return results, nil
}

// loggerFor prefers the request-scoped logger set by the HTTP layer.
func (s *Service) loggerFor(ctx context.Context) *zap.Logger {
	if l, ok := logpkg.Lookup(ctx); ok {
		return l
	}
	return s.logger
}
