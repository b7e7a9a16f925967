package casefinder

import "github.com/kailas-cloud/casefinder/internal/domain"

// CaseResult is one ranked case.
type CaseResult = domain.CaseResult

// SweepStats summarizes one ClearExpired pass.
type SweepStats = domain.SweepStats

// CacheEntry is a cached query with the time its results were fetched.
type CacheEntry = domain.CacheEntry
