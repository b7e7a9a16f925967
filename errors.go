package casefinder

import "github.com/kailas-cloud/casefinder/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrSearchFailed  = domain.ErrSearchFailed
	ErrNetwork       = domain.ErrNetwork
	ErrRateLimited   = domain.ErrRateLimited
	ErrBlockedAccess = domain.ErrBlockedAccess
	ErrHTTPStatus    = domain.ErrHTTPStatus
	ErrInvalidQuery  = domain.ErrInvalidQuery
	ErrCacheWrite    = domain.ErrCacheWrite
)

// SearchFailure is returned by FindCases once every attempt failed.
// Use errors.As() to read the attempt count.
type SearchFailure = domain.SearchFailure
