package search

import (
	"context"

	"github.com/kailas-cloud/casefinder/internal/domain"
)

// Cache reads and writes cached results per fact pattern.
type Cache interface {
	Get(ctx context.Context, query string) ([]domain.CaseResult, bool)
	Set(ctx context.Context, query string, results []domain.CaseResult) error
}

// Searcher queries the remote case repository.
type Searcher interface {
	Search(ctx context.Context, factPattern string) ([]domain.CaseResult, error)
}
