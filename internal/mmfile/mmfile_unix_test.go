//go:build linux || darwin || freebsd

package mmfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSizedFile(t *testing.T, size int64) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backing.cache")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestMapRangeUnalignedOffset(t *testing.T) {
	ps := int64(PageSize())
	f := newSizedFile(t, 4*ps)

	// Offset deliberately not page-aligned.
	off := ps + 20
	m, err := MapRange(f, off, 100)
	require.NoError(t, err)
	require.Equal(t, 100, m.Len())
	require.Equal(t, off, m.Offset())

	copy(m.Bytes(), []byte("hello"))
	require.NoError(t, m.Sync(0, 5))
	require.NoError(t, m.Unmap())

	got := make([]byte, 5)
	_, err = f.ReadAt(got, off)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestMapRangeSharedBetweenMappings(t *testing.T) {
	ps := int64(PageSize())
	f := newSizedFile(t, 2*ps)

	a, err := MapRange(f, 0, 2*ps)
	require.NoError(t, err)
	defer a.Unmap()
	b, err := MapRange(f, ps, ps)
	require.NoError(t, err)
	defer b.Unmap()

	a.Bytes()[ps+7] = 0x5a
	require.Equal(t, byte(0x5a), b.Bytes()[7])
}

func TestMappingSyncRejectsOutOfRange(t *testing.T) {
	f := newSizedFile(t, int64(PageSize()))
	m, err := MapRange(f, 0, 64)
	require.NoError(t, err)
	require.Error(t, m.Sync(60, 10))
	require.NoError(t, m.Flush())
}

func TestUnmapTwiceIsNoop(t *testing.T) {
	f := newSizedFile(t, int64(PageSize()))
	m, err := MapRange(f, 0, 64)
	require.NoError(t, err)
	require.NoError(t, m.Unmap())
	require.NoError(t, m.Unmap())
	require.ErrorIs(t, m.Flush(), ErrUnmapped)
	require.Nil(t, m.Bytes())
}

func TestMapRangeRejectsInvalidRange(t *testing.T) {
	f := newSizedFile(t, int64(PageSize()))
	_, err := MapRange(f, -1, 10)
	require.Error(t, err)
	_, err = MapRange(f, 0, 0)
	require.Error(t, err)
	_, err = MapRange(nil, 0, 10)
	require.Error(t, err)
}
