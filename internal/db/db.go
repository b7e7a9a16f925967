package db

import (
	"context"
	"path"
	"strings"
	"time"
)

// Store is the facade every cache backend implements.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore is the key-value contract the result cache is written against.
// Get returns ErrKeyNotFound for a missing key. Del on a missing key is not an error.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// MatchPattern reports whether key matches a Redis-style glob pattern.
// Backends without native SCAN MATCH use it to filter keys.
func MatchPattern(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}

// LiteralPrefix returns the part of pattern before the first glob metacharacter.
func LiteralPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}
