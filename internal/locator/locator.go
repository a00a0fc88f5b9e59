// Package locator maps experiment names to their local cache directory and
// their remote object-store location. It performs no I/O.
package locator

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/tunelab/tunestore/internal/models"
)

// Scheme prefixes rendered remote URIs.
const Scheme = "az://"

// Location is the default remote location: a container and a key prefix
// under which experiments are stored.
type Location struct {
	Container string
	Prefix    string
}

// Locator resolves experiment names against a local root and a default
// remote location.
type Locator struct {
	root string
	def  Location
}

// New creates a Locator. root is the local cache root.
func New(root string, def Location) *Locator {
	return &Locator{root: root, def: def}
}

// Root returns the local cache root.
func (l *Locator) Root() string { return l.root }

// LocalPath returns <root>/<name>.
func (l *Locator) LocalPath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(l.root, name), nil
}

type remoteOptions struct {
	container string
	group     string
}

// RemoteOption adjusts a single RemotePath resolution.
type RemoteOption func(*remoteOptions)

// WithContainer overrides the default container.
func WithContainer(container string) RemoteOption {
	return func(o *remoteOptions) { o.container = container }
}

// WithGroup inserts a grouping prefix between the default prefix and the name.
func WithGroup(group string) RemoteOption {
	return func(o *remoteOptions) { o.group = group }
}

// RemotePath returns the remote location of the experiment's artifacts.
// The key is <prefix>/[<group>/]<name> with empty segments skipped.
func (l *Locator) RemotePath(name string, opts ...RemoteOption) (RemoteURI, error) {
	if err := ValidateName(name); err != nil {
		return RemoteURI{}, err
	}
	o := remoteOptions{container: l.def.Container}
	for _, opt := range opts {
		opt(&o)
	}
	if o.container == "" {
		return RemoteURI{}, fmt.Errorf("resolving %q: no remote container configured", name)
	}
	return RemoteURI{
		Container: o.container,
		Key:       joinKey(l.def.Prefix, o.group, name),
	}, nil
}

// RemoteURI addresses an object (or an object prefix) in a container.
type RemoteURI struct {
	Container string
	Key       string
}

// Artifact returns the URI of a file below u.
func (u RemoteURI) Artifact(file string) RemoteURI {
	return RemoteURI{Container: u.Container, Key: joinKey(u.Key, file)}
}

func (u RemoteURI) String() string {
	if u.Key == "" {
		return Scheme + u.Container
	}
	return Scheme + u.Container + "/" + u.Key
}

// ParseRemoteURI parses az://<container>[/<key>].
func ParseRemoteURI(s string) (RemoteURI, error) {
	rest, ok := strings.CutPrefix(s, Scheme)
	if !ok {
		return RemoteURI{}, fmt.Errorf("remote URI %q: missing %s scheme", s, Scheme)
	}
	container, key, _ := strings.Cut(rest, "/")
	if container == "" {
		return RemoteURI{}, fmt.Errorf("remote URI %q: missing container", s)
	}
	return RemoteURI{Container: container, Key: joinKey(key)}, nil
}

// ValidateName rejects names that cannot be a single path segment.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", models.ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", models.ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", models.ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q is hidden", models.ErrInvalidName, name)
	}
	return nil
}

func joinKey(parts ...string) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			segs = append(segs, p)
		}
	}
	if len(segs) == 0 {
		return ""
	}
	return path.Join(segs...)
}
