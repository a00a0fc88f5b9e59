package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Cache is the local artifact tree. Nothing here removes an artifact; Write
// replaces one only when asked to write it again, so callers keeping the
// tree append-only check Has first.
type Cache struct {
	root string
}

// New creates a cache rooted at root.
func New(root string) *Cache {
	return &Cache{root: root}
}

// Has reports whether artifact exists as a regular file in dir.
func (c *Cache) Has(dir, artifact string) bool {
	info, err := os.Stat(filepath.Join(dir, artifact))
	return err == nil && info.Mode().IsRegular()
}

// Artifacts returns the sorted names of the regular, non-hidden files in dir.
// A missing directory yields no entries.
func (c *Cache) Artifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || isHidden(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Write stores the contents of r as dir/artifact and returns the hex
// SHA-256 of what was written. Parent directories are created. The data
// lands in a hidden temp file first and is renamed into place, so readers
// never observe a partial artifact.
func (c *Cache) Write(dir, artifact string, r io.Reader) (string, error) {
	if artifact == "" || filepath.Base(artifact) != artifact || isHidden(artifact) {
		return "", fmt.Errorf("invalid artifact name %q", artifact)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+artifact+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		return "", fmt.Errorf("writing %s: %w", artifact, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", artifact, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, artifact)); err != nil {
		return "", fmt.Errorf("committing %s: %w", artifact, err)
	}
	committed = true

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Digest returns the hex SHA-256 of dir/artifact.
func (c *Cache) Digest(dir, artifact string) (string, error) {
	h := sha256.New()
	if err := hashFile(h, filepath.Join(dir, artifact)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

func hashFile(h io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(h, f); err != nil {
		return err
	}

	return nil
}
