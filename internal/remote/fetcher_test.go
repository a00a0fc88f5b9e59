package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunelab/tunestore/internal/locator"
	"github.com/tunelab/tunestore/internal/metrics"
	"github.com/tunelab/tunestore/internal/models"
	"go.uber.org/mock/gomock"
)

func body(s string) io.ReadCloser { return io.NopCloser(strings.NewReader(s)) }

func notFound(blob string) error {
	return fmt.Errorf("bucket/%s: %w", blob, models.ErrNotFoundRemotely)
}

func TestFetcher_Fetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	dl := NewMockDownloader(ctrl)

	root := t.TempDir()
	loc := locator.New(root, locator.Location{Container: "bucket", Prefix: "experiments"})
	coll := metrics.NewCollector()
	f := NewFetcher(dl, loc, WithMetrics(coll))

	dl.EXPECT().Download(gomock.Any(), "bucket", "experiments/run-1/metadata.json").
		Return(body(`{"created_at": 1}`), nil)
	dl.EXPECT().Download(gomock.Any(), "bucket", "experiments/run-1/results.csv.zip").
		Return(nil, notFound("experiments/run-1/results.csv.zip"))
	dl.EXPECT().Download(gomock.Any(), "bucket", "experiments/run-1/results.csv").
		Return(body("trial_id\n0\n"), nil)

	dest := filepath.Join(root, "run-1")
	got, err := f.Fetch(context.Background(), "run-1",
		[]string{"metadata.json", "results.csv.zip", "results.csv"}, dest)
	require.NoError(t, err)

	assert.Equal(t, []string{"metadata.json", "results.csv"}, got.Names())
	assert.True(t, got.Has("results.csv"))
	assert.False(t, got.Has("results.csv.zip"))

	data, err := os.ReadFile(filepath.Join(dest, "results.csv"))
	require.NoError(t, err)
	assert.Equal(t, "trial_id\n0\n", string(data))
	assert.NoFileExists(t, filepath.Join(dest, "results.csv.zip"))

	series, err := testutil.GatherAndCount(coll.Registry(), "tunestore_fetch_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series)
}

func TestFetcher_KeepsCachedArtifacts(t *testing.T) {
	ctrl := gomock.NewController(t)
	dl := NewMockDownloader(ctrl)

	root := t.TempDir()
	loc := locator.New(root, locator.Location{Container: "bucket"})
	coll := metrics.NewCollector()
	f := NewFetcher(dl, loc, WithMetrics(coll))

	dest := filepath.Join(root, "run-1")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "results.csv"), []byte("trial_id\n0\n"), 0o644))

	dl.EXPECT().Download(gomock.Any(), "bucket", "run-1/metadata.json").Return(body(`{"created_at": 1}`), nil)

	got, err := f.Fetch(context.Background(), "run-1", []string{"results.csv", "metadata.json"}, dest)
	require.NoError(t, err)

	assert.Equal(t, []string{"metadata.json", "results.csv"}, got.Names())
	assert.Equal(t, []string{"metadata.json"}, got.Downloaded())
	assert.True(t, got["results.csv"].Cached)
	assert.Len(t, got["results.csv"].Digest, 64)
	series, err := testutil.GatherAndCount(coll.Registry(), "tunestore_fetch_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series, "one cached and one downloaded series")

	data, err := os.ReadFile(filepath.Join(dest, "results.csv"))
	require.NoError(t, err)
	assert.Equal(t, "trial_id\n0\n", string(data))
}

func TestFetcher_RefreshReplacesLocalCopies(t *testing.T) {
	ctrl := gomock.NewController(t)
	dl := NewMockDownloader(ctrl)

	root := t.TempDir()
	loc := locator.New(root, locator.Location{Container: "bucket"})
	f := NewFetcher(dl, loc)

	dest := filepath.Join(root, "run-1")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "results.csv"), []byte("stale\n"), 0o644))

	dl.EXPECT().Download(gomock.Any(), "bucket", "run-1/results.csv").Return(body("trial_id\n1\n"), nil)

	got, err := f.Refresh(context.Background(), "run-1", []string{"results.csv"}, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"results.csv"}, got.Downloaded())

	data, err := os.ReadFile(filepath.Join(dest, "results.csv"))
	require.NoError(t, err)
	assert.Equal(t, "trial_id\n1\n", string(data))
}

func TestFetcher_GroupAndContainerOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	dl := NewMockDownloader(ctrl)

	root := t.TempDir()
	loc := locator.New(root, locator.Location{Container: "bucket", Prefix: "experiments"})
	f := NewFetcher(dl, loc)

	dl.EXPECT().Download(gomock.Any(), "archive", "experiments/sweeps/run-1/state.json").
		Return(body(`{}`), nil)

	got, err := f.Fetch(context.Background(), "run-1", []string{"state.json"}, filepath.Join(root, "run-1"),
		locator.WithContainer("archive"), locator.WithGroup("sweeps"))
	require.NoError(t, err)
	assert.True(t, got.Has("state.json"))
}

func TestFetcher_InfrastructureFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	dl := NewMockDownloader(ctrl)

	root := t.TempDir()
	loc := locator.New(root, locator.Location{Container: "bucket"})
	f := NewFetcher(dl, loc)

	outage := fmt.Errorf("%w: dial tcp: connection refused", models.ErrInfrastructure)
	dl.EXPECT().Download(gomock.Any(), "bucket", "run-1/metadata.json").Return(body("{}"), nil)
	dl.EXPECT().Download(gomock.Any(), "bucket", "run-1/results.csv").Return(nil, outage)

	got, err := f.Fetch(context.Background(), "run-1",
		[]string{"metadata.json", "results.csv", "state.json"}, filepath.Join(root, "run-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInfrastructure)
	assert.Equal(t, []string{"metadata.json"}, got.Names())
}

func TestFetcher_BrokenStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	dl := NewMockDownloader(ctrl)

	root := t.TempDir()
	loc := locator.New(root, locator.Location{Container: "bucket"})
	f := NewFetcher(dl, loc)

	broken := io.NopCloser(io.MultiReader(strings.NewReader("trial_"), errReader{errors.New("reset by peer")}))
	dl.EXPECT().Download(gomock.Any(), "bucket", "run-1/results.csv").Return(broken, nil)

	dest := filepath.Join(root, "run-1")
	_, err := f.Fetch(context.Background(), "run-1", []string{"results.csv"}, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInfrastructure)
	assert.NoFileExists(t, filepath.Join(dest, "results.csv"))
}

func TestFetcher_InvalidName(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := NewFetcher(NewMockDownloader(ctrl), locator.New(t.TempDir(), locator.Location{Container: "bucket"}))

	_, err := f.Fetch(context.Background(), "../etc", []string{"metadata.json"}, t.TempDir())
	assert.ErrorIs(t, err, models.ErrInvalidName)
}

func TestFetcher_CanceledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := NewFetcher(NewMockDownloader(ctrl), locator.New(t.TempDir(), locator.Location{Container: "bucket"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, "run-1", []string{"metadata.json"}, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
