package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tunelab/tunestore/internal/locator"
	"github.com/tunelab/tunestore/internal/models"
)

// PathFilter decides from the path of an experiment's metadata.json
// whether the experiment is considered at all. A nil filter accepts
// everything.
type PathFilter func(path string) bool

// Contains returns a PathFilter accepting paths that contain substr.
func Contains(substr string) PathFilter {
	if substr == "" {
		return nil
	}
	return func(path string) bool { return strings.Contains(path, substr) }
}

// DirFilter adapts a filter over experiment directories to a PathFilter.
func DirFilter(accept func(dir string) bool) PathFilter {
	if accept == nil {
		return nil
	}
	return func(path string) bool { return accept(filepath.Dir(path)) }
}

// Scan returns a lazy sequence of the experiments below root. Every
// directory holding a metadata.json that is a JSON object with a
// created_at field, and whose name is a valid experiment name, yields one
// candidate. Each range over the sequence
// walks the tree afresh; breaking out of the loop stops the walk.
//
// A missing or unreadable root yields a single error. Entries that cannot
// be read during the walk are skipped.
func Scan(root string, filter PathFilter) iter.Seq2[models.Candidate, error] {
	return func(yield func(models.Candidate, error) bool) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			yield(models.Candidate{}, fmt.Errorf("resolving root path: %w", err))
			return
		}
		if _, err := os.Stat(absRoot); err != nil {
			yield(models.Candidate{}, fmt.Errorf("root path: %w", err))
			return
		}

		_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip inaccessible entries
			}

			if d.IsDir() {
				if path != absRoot && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				return nil
			}
			if d.Name() != models.MetadataFile {
				return nil
			}

			if filter != nil && !filter(path) {
				return nil
			}
			dir := filepath.Dir(path)
			if err := locator.ValidateName(filepath.Base(dir)); err != nil {
				slog.Debug("skipping experiment directory", "dir", dir, "error", err)
				return nil
			}
			if _, ok := readMetadata(path); !ok {
				return nil
			}

			if !yield(models.Candidate{Name: filepath.Base(dir), Dir: dir}, nil) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// readMetadata parses path and reports whether it is experiment metadata.
func readMetadata(path string) (*models.Metadata, bool) {
	m, err := models.LoadMetadata(path)
	if err != nil {
		slog.Debug("skipping unreadable metadata", "path", path, "error", err)
		return nil, false
	}
	if !m.Has(models.FieldCreatedAt) {
		slog.Debug("skipping metadata without creation time", "path", path)
		return nil, false
	}
	return m, true
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[models.Candidate, error]) ([]models.Candidate, error) {
	var out []models.Candidate
	for c, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Names drains seq and returns the candidate names in walk order.
func Names(seq iter.Seq2[models.Candidate, error]) ([]string, error) {
	cands, err := Collect(seq)
	names := make([]string, 0, len(cands))
	for _, c := range cands {
		names = append(names, c.Name)
	}
	return names, err
}

// Entry is the metadata of one discovered experiment.
type Entry struct {
	// Dir holds the experiment artifacts.
	Dir string `json:"dir"`
	// Parent is the directory containing Dir.
	Parent   string           `json:"path"`
	Metadata *models.Metadata `json:"metadata"`
}

// Metadata loads the metadata of every experiment below root, keyed by
// experiment name. accept, when non-nil, selects experiments by directory.
// When two directories share a name the first one walked wins and the other
// is reported with a warning.
func Metadata(root string, accept func(dir string) bool) (map[string]Entry, error) {
	out := make(map[string]Entry)
	for c, err := range Scan(root, DirFilter(accept)) {
		if err != nil {
			return nil, err
		}
		m, ok := readMetadata(filepath.Join(c.Dir, models.MetadataFile))
		if !ok {
			continue
		}
		if prev, dup := out[c.Name]; dup {
			slog.Warn("duplicate experiment name", "name", c.Name, "kept", prev.Dir, "ignored", c.Dir)
			continue
		}
		out[c.Name] = Entry{Dir: c.Dir, Parent: filepath.Dir(c.Dir), Metadata: m}
	}
	return out, nil
}

// IsNotExist reports whether a Scan error means the root is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
