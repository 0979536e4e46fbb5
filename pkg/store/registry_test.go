package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/bufheap/pkg/types"
)

func TestRegistry_GetIsCaseInsensitive(t *testing.T) {
	r, err := NewRegistry(t.TempDir(), smallOptions())
	require.NoError(t, err)
	defer r.Close()

	a, err := r.Get("Thumbnails")
	require.NoError(t, err)
	b, err := r.Get("THUMBNAILS")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, []string{"Thumbnails"}, r.Names())
	assert.Equal(t, filepath.Join(r.Dir(), "thumbnails#0.cache"), a.Path())

	// Unicode folding, not just ASCII.
	c, err := r.Get("ΣΊΣΥΦΟΣ")
	require.NoError(t, err)
	d, err := r.Get("σίσυφος")
	require.NoError(t, err)
	assert.Same(t, c, d)
}

func TestRegistry_RemovesOrphans(t *testing.T) {
	dir := t.TempDir()
	orphan := filepath.Join(dir, "blobs#7.cache")
	other := filepath.Join(dir, "blobsx#1.cache")
	require.NoError(t, os.WriteFile(orphan, []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))

	r, err := NewRegistry(dir, smallOptions())
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Get("Blobs")
	require.NoError(t, err)
	assert.NoFileExists(t, orphan)
	assert.FileExists(t, other)
}

func TestRegistry_RemoveAndClose(t *testing.T) {
	r, err := NewRegistry(t.TempDir(), smallOptions())
	require.NoError(t, err)

	s, err := r.Get("one")
	require.NoError(t, err)
	path := s.Path()
	_, err = s.Allocate(100)
	require.NoError(t, err)

	require.NoError(t, r.Remove("ONE"))
	assert.NoFileExists(t, path)
	_, err = s.Allocate(1)
	require.ErrorIs(t, err, types.ErrClosed)
	require.NoError(t, r.Remove("never-created"))

	s2, err := r.Get("one")
	require.NoError(t, err)
	assert.NotEqual(t, path, s2.Path())

	require.NoError(t, r.Close())
	assert.NoFileExists(t, s2.Path())
	assert.Empty(t, r.Names())
	_, err = r.Get("one")
	require.ErrorIs(t, err, types.ErrClosed)
}

func TestRegistry_RejectsBadNames(t *testing.T) {
	r, err := NewRegistry(t.TempDir(), smallOptions())
	require.NoError(t, err)
	defer r.Close()

	for _, name := range []string{"", "a#b", "../x", `a\b`, ".."} {
		_, err := r.Get(name)
		require.ErrorIs(t, err, ErrBadName, "name %q", name)
	}
}
