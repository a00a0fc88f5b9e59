package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		baseDir  string
		expected string
	}{
		{
			name:     "absolute path unchanged",
			path:     "/abs/path",
			baseDir:  "/base",
			expected: "/abs/path",
		},
		{
			name:     "relative path resolved",
			path:     "rel/sub",
			baseDir:  "/base",
			expected: "/base/rel/sub",
		},
		{
			name:     "parent reference",
			path:     "../parent",
			baseDir:  "/base/sub",
			expected: "/base/parent",
		},
		{
			name:     "home directory",
			path:     "~/tunestore",
			baseDir:  "/base",
			expected: filepath.Join(home, "tunestore"),
		},
		{
			name:     "bare tilde",
			path:     "~",
			baseDir:  "/base",
			expected: home,
		},
		{
			name:     "tilde inside name is literal",
			path:     "~backup",
			baseDir:  "/base",
			expected: "/base/~backup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ResolvePath(tt.path, tt.baseDir)
			require.NoError(t, err)
			assert.Equal(t, filepath.Clean(tt.expected), filepath.Clean(result))
		})
	}
}
