package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	c := New(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, c.Load())
	assert.Equal(t, 0, c.Len())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.json")

	c := New(path)
	require.NoError(t, c.Load())
	c.Put("pets.Kitten", "struc", map[string]any{".class": "FuncDef", "name": "struc"})
	c.Put("pets.Kitten", "unstruc", map[string]any{".class": "FuncDef", "name": "unstruc"})
	require.NoError(t, c.Save())

	restored := New(path)
	require.NoError(t, restored.Load())
	assert.Equal(t, 2, restored.Len())

	rec, ok := restored.Get("pets.Kitten", "struc")
	require.True(t, ok)
	assert.Equal(t, "struc", rec["name"])

	_, ok = restored.Get("pets.Kitten", "missing")
	assert.False(t, ok)
}

func TestRecordsOrdered(t *testing.T) {
	t.Parallel()

	c := New(filepath.Join(t.TempDir(), "cache.json"))
	c.Put("b.B", "m", map[string]any{"name": "second"})
	c.Put("a.A", "m", map[string]any{"name": "first"})

	recs := c.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "first", recs[0]["name"])
	assert.Equal(t, "second", recs[1]["name"])
}

func TestCorruptFileResets(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := New(path)
	require.NoError(t, c.Load())
	assert.Equal(t, 0, c.Len())
}

func TestSaveCreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.json")
	c := New(path)
	c.Put("a.A", "m", map[string]any{"name": "x"})
	require.NoError(t, c.Save())

	_, err := os.Stat(path)
	require.NoError(t, err)
}
