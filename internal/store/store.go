// Package store resolves experiments from the local cache, falling back to
// remote storage, and collects them in bulk.
package store

import (
	"log/slog"

	"github.com/tunelab/tunestore/internal/locator"
	"github.com/tunelab/tunestore/internal/metrics"
	"github.com/tunelab/tunestore/internal/remote"
)

// DefaultWorkers bounds concurrent loads in Collect.
const DefaultWorkers = 8

// Store loads experiment records. It holds no per-experiment state, so one
// Store may serve concurrent callers; every call returns fresh records.
type Store struct {
	locator *locator.Locator
	fetcher *remote.Fetcher
	workers int
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures a Store.
type Option func(*Store)

// WithFetcher enables remote fallback through f.
func WithFetcher(f *remote.Fetcher) Option {
	return func(s *Store) { s.fetcher = f }
}

// WithWorkers sets the maximum number of concurrent loads in Collect.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics records load and collect activity on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Store) { s.metrics = c }
}

// New creates a Store over the layout described by loc.
func New(loc *locator.Locator, opts ...Option) *Store {
	s := &Store{
		locator: loc,
		workers: DefaultWorkers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locator returns the locator the store resolves names with.
func (s *Store) Locator() *locator.Locator { return s.locator }

// HasRemote reports whether remote fallback is configured.
func (s *Store) HasRemote() bool { return s.fetcher != nil }
