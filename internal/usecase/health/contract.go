package health

import "context"

// StorePinger checks that the cache store is reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}
