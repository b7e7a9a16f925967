// Package driver opens the configured result cache store.
package driver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casefinder/internal/db"
	dbBadger "github.com/kailas-cloud/casefinder/internal/db/badger"
	"github.com/kailas-cloud/casefinder/internal/db/filestore"
	dbRedis "github.com/kailas-cloud/casefinder/internal/db/redis"
)

// Supported drivers.
const (
	File   = "file"
	Badger = "badger"
	Redis  = "redis"
	Valkey = "valkey"
)

// Options selects and configures a store.
type Options struct {
	Driver           string
	Dir              string
	Addrs            []string
	Password         string
	ReadinessTimeout time.Duration
	Logger           *zap.Logger
}

// Open creates the store named by opts.Driver and waits until it answers.
// An empty driver means File.
func Open(ctx context.Context, opts Options) (db.Store, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ReadinessTimeout <= 0 {
		opts.ReadinessTimeout = 10 * time.Second
	}

	var (
		store db.Store
		err   error
	)
	switch opts.Driver {
	case File, "":
		store, err = filestore.NewStore(filestore.Config{Dir: opts.Dir})
	case Badger:
		store, err = dbBadger.NewStore(dbBadger.Config{Path: opts.Dir, Logger: opts.Logger})
	case Redis, Valkey:
		store, err = dbRedis.NewStore(dbRedis.Config{Addrs: opts.Addrs, Password: opts.Password})
	default:
		return nil, fmt.Errorf("unknown cache driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Driver, err)
	}

	if err := store.WaitForReady(ctx, opts.ReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s store not ready: %w", opts.Driver, err)
	}
	return store, nil
}
