// Package filestore keeps one JSON file per key in a local directory.
//
// File names are the query-escaped key plus ".json", so a cache directory
// stays readable with ordinary tools. Writes go through a hidden temporary
// file in the same directory and a rename, which makes replacing a single
// record atomic. Temporary files left behind by a crash are removed when the
// store is opened.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/kailas-cloud/casefinder/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const (
	fileExt  = ".json"
	dirPerm  = 0o755
	filePerm = 0o644

	// staleTempAge is how old a hidden temporary file must be before it is
	// treated as a crash leftover rather than an in-progress write.
	staleTempAge = time.Hour
)

// Config holds the store location.
type Config struct {
	Dir string
}

// Store implements db.Store on top of a directory.
type Store struct {
	dir string
}

// NewStore creates the directory if needed and returns a store rooted at it.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", cfg.Dir, err)
	}
	s := &Store{dir: filepath.Clean(cfg.Dir)}
	if err := s.removeStaleTemp(time.Now()); err != nil {
		return nil, fmt.Errorf("clean cache dir %s: %w", cfg.Dir, err)
	}
	return s, nil
}

// removeStaleTemp deletes hidden files older than staleTempAge.
func (s *Store) removeStaleTemp(now time.Time) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isHidden(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed meanwhile
		}
		if now.Sub(info.ModTime()) < staleTempAge {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string { return s.dir }

// Ping checks that the directory is still there.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	if !info.IsDir() {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("%s is not a directory", s.dir)}
	}
	return nil
}

// Close is a no-op; files are closed after every operation.
func (s *Store) Close() {}

// WaitForReady returns as soon as the directory is usable.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get reads the file stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set replaces the file stored under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := renameio.WriteFile(s.path(key), value, filePerm, renameio.WithTempDir(s.dir)); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes the file stored under key.
func (s *Store) Del(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Scan lists keys whose files are in the directory and match pattern.
// Hidden files, files without the record extension and files with
// undecodable names are ignored.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}

	var keys []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		name := e.Name()
		if e.IsDir() || isHidden(name) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		if db.MatchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func isHidden(name string) bool { return strings.HasPrefix(name, ".") }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+fileExt)
}
