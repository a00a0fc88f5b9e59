package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/tunelab/tunestore/internal/cache"
	"github.com/tunelab/tunestore/internal/locator"
	"github.com/tunelab/tunestore/internal/metrics"
	"github.com/tunelab/tunestore/internal/models"
)

// Artifact records how one artifact came to be present locally.
type Artifact struct {
	// Digest is the hex SHA-256 of the local copy.
	Digest string `json:"sha256"`
	// Cached is set when the local copy already existed and no download
	// happened.
	Cached bool `json:"cached"`
}

// Fetched maps the artifacts present locally after a Fetch to how they
// got there. Artifacts missing remotely are absent.
type Fetched map[string]Artifact

// Has reports whether artifact is present locally.
func (f Fetched) Has(artifact string) bool {
	_, ok := f[artifact]
	return ok
}

// Names returns the present artifacts in sorted order.
func (f Fetched) Names() []string {
	return slices.Sorted(maps.Keys(f))
}

// Downloaded returns the artifacts copied from remote storage, sorted.
func (f Fetched) Downloaded() []string {
	var names []string
	for _, n := range f.Names() {
		if !f[n].Cached {
			names = append(names, n)
		}
	}
	return names
}

// Fetcher copies an experiment's artifacts from remote storage into a
// local directory.
type Fetcher struct {
	downloader Downloader
	locator    *locator.Locator
	cache      *cache.Cache
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// WithMetrics records fetch outcomes on c.
func WithMetrics(c *metrics.Collector) FetcherOption {
	return func(f *Fetcher) { f.metrics = c }
}

// NewFetcher creates a Fetcher that resolves remote locations with loc.
func NewFetcher(d Downloader, loc *locator.Locator, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		downloader: d,
		locator:    loc,
		cache:      cache.New(loc.Root()),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads each requested artifact of name into destDir, in the
// order given. Artifacts already present in destDir are kept as they are
// and reported as cached. Artifacts missing remotely are skipped. Any other
// failure aborts the fetch; the returned set still lists what was present
// before it.
func (f *Fetcher) Fetch(ctx context.Context, name string, artifacts []string, destDir string, ro ...locator.RemoteOption) (Fetched, error) {
	return f.fetch(ctx, name, artifacts, destDir, false, ro)
}

// Refresh is Fetch without the cache check: every artifact found remotely
// replaces the local copy.
func (f *Fetcher) Refresh(ctx context.Context, name string, artifacts []string, destDir string, ro ...locator.RemoteOption) (Fetched, error) {
	return f.fetch(ctx, name, artifacts, destDir, true, ro)
}

func (f *Fetcher) fetch(ctx context.Context, name string, artifacts []string, destDir string, overwrite bool, ro []locator.RemoteOption) (Fetched, error) {
	base, err := f.locator.RemotePath(name, ro...)
	if err != nil {
		return nil, err
	}

	fetched := make(Fetched, len(artifacts))
	for _, artifact := range artifacts {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		if !overwrite && f.cache.Has(destDir, artifact) {
			digest, err := f.cache.Digest(destDir, artifact)
			if err != nil {
				return fetched, fmt.Errorf("%w: hashing cached %s: %w", models.ErrInfrastructure, artifact, err)
			}
			f.metrics.RecordFetch(artifact, metrics.OutcomeCached, 0)
			fetched[artifact] = Artifact{Digest: digest, Cached: true}
			continue
		}

		uri := base.Artifact(artifact)
		n, digest, err := f.fetchOne(ctx, uri, destDir, artifact)
		switch {
		case errors.Is(err, models.ErrNotFoundRemotely):
			f.logger.Debug("artifact not found remotely", "experiment", name, "uri", uri.String())
			f.metrics.RecordFetch(artifact, metrics.OutcomeNotFound, 0)
			continue
		case err != nil:
			f.metrics.RecordFetch(artifact, metrics.OutcomeError, 0)
			return fetched, fmt.Errorf("fetching %s: %w", uri, err)
		}

		f.logger.Debug("fetched artifact", "experiment", name, "uri", uri.String(), "bytes", n, "sha256", digest)
		f.metrics.RecordFetch(artifact, metrics.OutcomeOK, n)
		fetched[artifact] = Artifact{Digest: digest}
	}
	return fetched, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, uri locator.RemoteURI, destDir, artifact string) (int64, string, error) {
	body, err := f.downloader.Download(ctx, uri.Container, uri.Key)
	if err != nil {
		return 0, "", err
	}
	defer body.Close() //nolint:errcheck

	cr := &countingReader{r: body}
	digest, err := f.cache.Write(destDir, artifact, cr)
	if err != nil {
		return cr.n, "", fmt.Errorf("%w: %w", models.ErrInfrastructure, err)
	}
	return cr.n, digest, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
