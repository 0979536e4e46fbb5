package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/bufheap/heap"
	"github.com/joshuapare/bufheap/heap/dirty"
	"github.com/joshuapare/bufheap/internal/testutil"
)

// newTestChains creates a heap with blockCount blocks of 4 KiB and an allocator over it.
func newTestChains(t testing.TB, blockCount int64) (*Chains, *heap.Heap, *dirty.Tracker) {
	t.Helper()
	h := testutil.NewHeap(t, 4096, blockCount)
	dt := dirty.NewTracker(h)
	c, err := New(h, dt)
	require.NoError(t, err)
	return c, h, dt
}
