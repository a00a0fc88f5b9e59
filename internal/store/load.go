package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tunelab/tunestore/internal/dataset"
	"github.com/tunelab/tunestore/internal/locator"
	"github.com/tunelab/tunestore/internal/metrics"
	"github.com/tunelab/tunestore/internal/models"
	"github.com/tunelab/tunestore/internal/utils"
	"github.com/tunelab/tunestore/internal/validation"
)

// LoadOptions controls a single Load.
type LoadOptions struct {
	// AllowRemote fetches the artifacts when metadata is missing locally.
	AllowRemote bool
	// LoadState also reads (and fetches) the run-state artifact.
	LoadState bool
	// Dir overrides the local directory; discovery hands over nested
	// directories this way. Empty means the locator's path for the name.
	Dir string
	// Remote adjusts the remote location used for fallback.
	Remote []locator.RemoteOption
}

// Load resolves one experiment. Missing or malformed artifacts leave the
// corresponding field nil; only an invalid name or an infrastructure
// failure during remote fallback is returned as an error.
func (s *Store) Load(ctx context.Context, name string, opts LoadOptions) (*models.Experiment, error) {
	if err := locator.ValidateName(name); err != nil {
		return nil, err
	}
	dir := opts.Dir
	if dir == "" {
		var err error
		if dir, err = s.locator.LocalPath(name); err != nil {
			return nil, err
		}
	}

	if err := s.fallback(ctx, name, dir, opts); err != nil {
		s.metrics.RecordLoad(metrics.LoadError)
		return nil, err
	}

	exp := &models.Experiment{
		Name:     filepath.Base(dir),
		Path:     dir,
		Metadata: s.loadMetadata(dir),
		Results:  s.loadResults(dir),
	}
	if opts.LoadState {
		exp.State = s.loadState(dir)
		if exp.State != nil && exp.State.Name != "" {
			exp.Name = exp.State.Name
		}
	}

	utils.ExperimentToSlog(s.logger, exp)
	if exp.Usable() {
		s.metrics.RecordLoad(metrics.LoadUsable)
	} else {
		s.metrics.RecordLoad(metrics.LoadUnusable)
	}
	return exp, nil
}

// fallback fetches the artifact set when metadata is absent locally and
// remote fallback is both requested and configured.
func (s *Store) fallback(ctx context.Context, name, dir string, opts LoadOptions) error {
	if !opts.AllowRemote || s.fetcher == nil {
		return nil
	}
	if fileExists(filepath.Join(dir, models.MetadataFile)) {
		return nil
	}

	artifacts := Artifacts(opts.LoadState)
	fetched, err := s.fetcher.Fetch(ctx, name, artifacts, dir, opts.Remote...)
	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	s.logger.Debug("remote fallback", "experiment", name, "fetched", fetched.Names())
	return nil
}

// Artifacts returns the artifact names fetched for one experiment, in
// fetch order. Metadata comes last: its local presence marks the
// experiment as cached, so it must not land before the rest.
func Artifacts(withState bool) []string {
	out := make([]string, 0, len(dataset.ResultsEncodings)+2)
	out = append(out, dataset.ResultsEncodings...)
	if withState {
		out = append(out, models.StateFile)
	}
	return append(out, models.MetadataFile)
}

func (s *Store) loadMetadata(dir string) *models.Metadata {
	p := filepath.Join(dir, models.MetadataFile)
	m, err := models.LoadMetadata(p)
	if err != nil {
		s.logger.Debug("metadata unavailable", "path", p, "error", err)
		return nil
	}
	if errs := validation.ValidateMetadata(m.Plain()); len(errs) > 0 {
		s.logger.Debug("metadata invalid", "path", p, "errors", errs)
		return nil
	}
	return m
}

func (s *Store) loadResults(dir string) *dataset.Table {
	t, from, err := dataset.LoadResults(dir)
	if err != nil {
		s.logger.Debug("results unavailable", "dir", dir, "error", err)
		return nil
	}
	s.logger.Debug("loaded results", "path", from, "rows", t.Len())
	return t
}

func (s *Store) loadState(dir string) *models.State {
	p := filepath.Join(dir, models.StateFile)
	st, err := models.LoadState(p)
	if err != nil {
		s.logger.Debug("state unavailable", "path", p, "error", err)
		return nil
	}
	return st
}
