package webapi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tunelab/tunestore/internal/locator"
	"github.com/tunelab/tunestore/internal/models"
	"github.com/tunelab/tunestore/internal/store"
)

// ErrExperimentNotFound is returned when a name does not resolve to a
// usable experiment.
var ErrExperimentNotFound = errors.New("experiment not found")

// ExperimentStore provides access to experiment records.
type ExperimentStore interface {
	// List returns the usable experiments, most recent first.
	List(ctx context.Context) (*store.Collection, error)
	// Get returns a single usable experiment.
	Get(ctx context.Context, name string) (*models.Experiment, error)
}

// CollectionStore serves experiments discovered under the store's local
// root. The collection is loaded once and kept until Reload.
type CollectionStore struct {
	store *store.Store
	opts  store.CollectOptions

	mu     sync.RWMutex
	coll   *store.Collection
	loaded bool
}

// NewCollectionStore creates a CollectionStore over s.
func NewCollectionStore(s *store.Store, opts store.CollectOptions) *CollectionStore {
	return &CollectionStore{store: s, opts: opts}
}

func (cs *CollectionStore) load(ctx context.Context) error {
	coll, err := cs.store.List(ctx, "", nil, nil, cs.opts)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.coll = coll
	cs.loaded = true
	return nil
}

func (cs *CollectionStore) ensureLoaded(ctx context.Context) error {
	cs.mu.RLock()
	if cs.loaded {
		cs.mu.RUnlock()
		return nil
	}
	cs.mu.RUnlock()
	return cs.load(ctx)
}

// Reload forces a fresh scan of the local root.
func (cs *CollectionStore) Reload(ctx context.Context) error {
	return cs.load(ctx)
}

// List returns the cached collection.
func (cs *CollectionStore) List(ctx context.Context) (*store.Collection, error) {
	if err := cs.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.coll, nil
}

// Get returns the named experiment from the collection, falling back to a
// direct load (which may fetch from the remote) for names not yet local.
func (cs *CollectionStore) Get(ctx context.Context, name string) (*models.Experiment, error) {
	if err := locator.ValidateName(name); err != nil {
		return nil, err
	}
	coll, err := cs.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range coll.Experiments {
		if e.Name == name {
			return e, nil
		}
	}

	exp, err := cs.store.Load(ctx, name, store.LoadOptions{
		AllowRemote: cs.opts.AllowRemote,
		LoadState:   cs.opts.LoadState,
		Remote:      cs.opts.Remote,
	})
	if err != nil {
		return nil, err
	}
	if !exp.Usable() {
		return nil, fmt.Errorf("%w: %s", ErrExperimentNotFound, name)
	}
	return exp, nil
}

var _ ExperimentStore = (*CollectionStore)(nil)
