package store

import (
	"cmp"
	"context"
	"errors"
	"os"
	"slices"
	"time"

	"github.com/tunelab/tunestore/internal/aggregate"
	"github.com/tunelab/tunestore/internal/dataset"
	"github.com/tunelab/tunestore/internal/discovery"
	"github.com/tunelab/tunestore/internal/locator"
	"github.com/tunelab/tunestore/internal/models"
	"golang.org/x/sync/errgroup"
)

// ExperimentFilter selects usable experiments. A nil filter keeps all.
type ExperimentFilter func(*models.Experiment) bool

// CollectOptions controls how candidates are loaded.
type CollectOptions struct {
	AllowRemote bool
	LoadState   bool
	Remote      []locator.RemoteOption
}

// Collection is the outcome of a bulk load.
type Collection struct {
	// Experiments are the usable records accepted by the filter, most
	// recent first.
	Experiments []*models.Experiment `json:"experiments"`
	// Scanned is the number of candidates considered.
	Scanned int `json:"scanned"`
}

// Usable returns the number of records kept.
func (c *Collection) Usable() int { return len(c.Experiments) }

// Names returns the kept experiment names in order.
func (c *Collection) Names() []string {
	out := make([]string, len(c.Experiments))
	for i, e := range c.Experiments {
		out[i] = e.Name
	}
	return out
}

// Collect loads every candidate with bounded concurrency and keeps the
// usable ones that pass filter, ordered by descending creation time with
// ties broken by name. Unusable records are dropped before filter sees
// them, as are candidates whose name is not a valid experiment name. An
// infrastructure failure aborts the whole collect.
func (s *Store) Collect(ctx context.Context, cands []models.Candidate, filter ExperimentFilter, opts CollectOptions) (*Collection, error) {
	start := time.Now()
	loaded := make([]*models.Experiment, len(cands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, c := range cands {
		g.Go(func() error {
			exp, err := s.Load(gctx, c.Name, LoadOptions{
				AllowRemote: opts.AllowRemote,
				LoadState:   opts.LoadState,
				Dir:         c.Dir,
				Remote:      opts.Remote,
			})
			if errors.Is(err, models.ErrInvalidName) {
				s.logger.Debug("skipping candidate", "name", c.Name, "dir", c.Dir, "error", err)
				return nil
			}
			if err != nil {
				return err
			}
			loaded[i] = exp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := make([]*models.Experiment, 0, len(loaded))
	for _, exp := range loaded {
		if exp == nil || !exp.Usable() {
			continue
		}
		if filter != nil && !filter(exp) {
			continue
		}
		kept = append(kept, exp)
	}
	slices.SortStableFunc(kept, func(a, b *models.Experiment) int {
		if c := cmp.Compare(b.CreatedAt(), a.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	s.metrics.RecordCollect(len(cands), time.Since(start))
	s.logger.Info("collected experiments", "scanned", len(cands), "usable", len(kept))
	return &Collection{Experiments: kept, Scanned: len(cands)}, nil
}

// CollectNames is Collect over names resolved with the locator.
func (s *Store) CollectNames(ctx context.Context, names []string, filter ExperimentFilter, opts CollectOptions) (*Collection, error) {
	cands := make([]models.Candidate, len(names))
	for i, n := range names {
		cands[i] = models.Candidate{Name: n}
	}
	return s.Collect(ctx, cands, filter, opts)
}

// List discovers the experiments below root (the locator root when empty)
// and collects them. A root that does not exist yet holds no experiments.
func (s *Store) List(ctx context.Context, root string, pathFilter discovery.PathFilter, filter ExperimentFilter, opts CollectOptions) (*Collection, error) {
	if root == "" {
		root = s.locator.Root()
	}
	cands, err := discovery.Collect(discovery.Scan(root, pathFilter))
	if err != nil {
		if discovery.IsNotExist(err) {
			s.logger.Debug("experiment root does not exist", "root", root)
			return &Collection{}, nil
		}
		return nil, err
	}
	return s.Collect(ctx, cands, filter, opts)
}

// Frame lists the experiments below root and merges them into one table.
func (s *Store) Frame(ctx context.Context, root string, pathFilter discovery.PathFilter, filter ExperimentFilter, opts CollectOptions) (*dataset.Table, *Collection, error) {
	coll, err := s.List(ctx, root, pathFilter, filter, opts)
	if err != nil {
		return nil, nil, err
	}
	table, err := aggregate.Merge(coll.Experiments)
	if err != nil {
		return nil, coll, err
	}
	return table, coll, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
