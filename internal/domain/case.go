package domain

import "time"

// KeyPrefix is the namespace for every key casefinder writes to a store.
const KeyPrefix = "casefinder:"

// CaseResult is one matched case returned by a search.
type CaseResult struct {
	Title           string  `json:"title"`
	URL             string  `json:"url"`
	Summary         string  `json:"summary"`
	SimilarityScore float64 `json:"similarity_score"`
}

// CacheEntry is the persisted snapshot of a previous search.
// Query is stored for diagnostics only; lookups go through a hash of it.
type CacheEntry struct {
	Query     string       `json:"query"`
	Timestamp time.Time    `json:"timestamp"`
	Results   []CaseResult `json:"results"`
}

// Expired reports whether the entry is older than ttl at the given instant.
// An entry exactly ttl old is still fresh.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) > ttl
}

// SweepStats summarizes one pass over the cache removing stale records.
type SweepStats struct {
	Scanned int
	Expired int
	Corrupt int
	// ListFailed is set when the store could not be enumerated.
	ListFailed bool
}

// Removed is the number of records deleted in the pass.
func (s SweepStats) Removed() int { return s.Expired + s.Corrupt }
