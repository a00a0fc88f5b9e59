package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_WriteAndHas(t *testing.T) {
	root := t.TempDir()
	c := New(root)
	dir := filepath.Join(root, "nested", "run-1")

	assert.False(t, c.Has(dir, "metadata.json"))

	sum, err := c.Write(dir, "metadata.json", strings.NewReader(`{"created_at": 1}`))
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	assert.True(t, c.Has(dir, "metadata.json"))
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"created_at": 1}`, string(data))

	again, err := c.Digest(dir, "metadata.json")
	require.NoError(t, err)
	assert.Equal(t, sum, again)
}

func TestCache_WriteOverwrites(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	_, err := c.Write(dir, "results.csv", strings.NewReader("a\n1\n"))
	require.NoError(t, err)
	_, err = c.Write(dir, "results.csv", strings.NewReader("a\n2\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "results.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a\n2\n", string(data))
}

func TestCache_FailedWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	_, err := c.Write(dir, "results.csv", iotest.ErrReader(errors.New("connection reset")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	assert.False(t, c.Has(dir, "results.csv"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file should be cleaned up")
}

func TestCache_WriteRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	for _, name := range []string{"", "../x", "a/b", ".hidden"} {
		_, err := c.Write(dir, name, strings.NewReader("x"))
		assert.Error(t, err, name)
	}
}

func TestCache_Artifacts(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	names, err := c.Artifacts(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, n := range []string{"state.json", "metadata.json"} {
		_, err := c.Write(dir, n, strings.NewReader("{}"))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial.tmp"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	names, err = c.Artifacts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"metadata.json", "state.json"}, names)
}

func TestCache_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Write(dir, "results.csv", strings.NewReader("trial_id\n0\n"))
			assert.NoError(t, err, fmt.Sprintf("writer %d", i))
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "results.csv"))
	require.NoError(t, err)
	assert.Equal(t, "trial_id\n0\n", string(data))

	names, err := c.Artifacts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"results.csv"}, names)
}
