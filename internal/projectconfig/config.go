// Package projectconfig provides the ProjectConfig struct and loader for
// .tunestore.yaml configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tunelab/tunestore/internal/utils"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up from the working directory.
const FileName = ".tunestore.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultRoot = "~/tunestore"

	DefaultContainer = "tunestore"
	DefaultPrefix    = "experiments"
	DefaultTimeout   = 60
	DefaultRetries   = 3

	DefaultWorkers = 8

	DefaultServerPort = 3000
)

// maxWalkUp bounds the search for FileName.
const maxWalkUp = 10

// PathsConfig holds local directories.
type PathsConfig struct {
	Root string `yaml:"root,omitempty"`
}

// RemoteConfig holds the blob store the experiments are fetched from.
type RemoteConfig struct {
	AccountURL       string `yaml:"account_url,omitempty"`
	ConnectionString string `yaml:"connection_string,omitempty"`
	Container        string `yaml:"container,omitempty"`
	Prefix           string `yaml:"prefix,omitempty"`
	// Timeout is the per-try timeout in seconds.
	Timeout int   `yaml:"timeout,omitempty"`
	Retries int32 `yaml:"retries,omitempty"`
}

// Configured reports whether enough is set to reach the remote.
func (r RemoteConfig) Configured() bool {
	return r.AccountURL != "" || r.ConnectionString != ""
}

// TryTimeout returns Timeout as a duration.
func (r RemoteConfig) TryTimeout() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

// DefaultsConfig holds default loader parameters.
type DefaultsConfig struct {
	Workers     int   `yaml:"workers,omitempty"`
	AllowRemote *bool `yaml:"allow_remote,omitempty"`
	LoadState   *bool `yaml:"load_state,omitempty"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .tunestore.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Remote   RemoteConfig   `yaml:"remote,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`

	// dir is the directory holding the loaded file, empty for defaults.
	dir string
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Root: DefaultRoot,
		},
		Remote: RemoteConfig{
			Container: DefaultContainer,
			Prefix:    DefaultPrefix,
			Timeout:   DefaultTimeout,
			Retries:   DefaultRetries,
		},
		Defaults: DefaultsConfig{
			Workers:     DefaultWorkers,
			AllowRemote: utils.Ptr(true),
			LoadState:   utils.Ptr(false),
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
	}
}

// Dir returns the directory of the loaded config file, or "" when the
// defaults are in use.
func (c *ProjectConfig) Dir() string {
	return c.dir
}

// ResolveRoot returns the absolute local root. A relative root is resolved
// against the config file's directory, or the working directory when no
// file was loaded.
func (c *ProjectConfig) ResolveRoot() (string, error) {
	base := c.dir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving root: %w", err)
		}
		base = wd
	}
	return utils.ResolvePath(c.Paths.Root, base)
}

// AllowRemote is the effective default for remote fallback.
func (c *ProjectConfig) AllowRemote() bool {
	return c.Defaults.AllowRemote != nil && *c.Defaults.AllowRemote
}

// LoadState is the effective default for reading run state.
func (c *ProjectConfig) LoadState() bool {
	return c.Defaults.LoadState != nil && *c.Defaults.LoadState
}

// Load finds .tunestore.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	mergeConfig(cfg, &fileCfg)
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// findConfigFile walks up from dir looking for FileName. Returns
// os.ErrNotExist if no config file is found.
func findConfigFile(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range maxWalkUp {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Root != "" {
		dst.Paths.Root = src.Paths.Root
	}

	// Remote
	if src.Remote.AccountURL != "" {
		dst.Remote.AccountURL = src.Remote.AccountURL
	}
	if src.Remote.ConnectionString != "" {
		dst.Remote.ConnectionString = src.Remote.ConnectionString
	}
	if src.Remote.Container != "" {
		dst.Remote.Container = src.Remote.Container
	}
	if src.Remote.Prefix != "" {
		dst.Remote.Prefix = src.Remote.Prefix
	}
	if src.Remote.Timeout != 0 {
		dst.Remote.Timeout = src.Remote.Timeout
	}
	if src.Remote.Retries != 0 {
		dst.Remote.Retries = src.Remote.Retries
	}

	// Defaults
	if src.Defaults.Workers != 0 {
		dst.Defaults.Workers = src.Defaults.Workers
	}
	if src.Defaults.AllowRemote != nil {
		dst.Defaults.AllowRemote = src.Defaults.AllowRemote
	}
	if src.Defaults.LoadState != nil {
		dst.Defaults.LoadState = src.Defaults.LoadState
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
}
