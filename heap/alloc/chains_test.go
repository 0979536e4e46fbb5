package alloc

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/bufheap/internal/format"
)

func TestAllocateBlocks_LinksChain(t *testing.T) {
	c, _, _ := newTestChains(t, 11)

	head, err := c.AllocateBlocks(3)
	require.NoError(t, err)

	chain, err := c.Chain(head)
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3}, chain)
	assert.Equal(t, int32(2), c.Slot(1))
	assert.Equal(t, int32(3), c.Slot(2))
	assert.Equal(t, format.SlotTerminal, c.Slot(3))
	assert.Equal(t, int64(7), c.FreeCount())
}

func TestAllocateBlocks_NeverUsesBlockZero(t *testing.T) {
	c, _, _ := newTestChains(t, 4)

	head, err := c.AllocateBlocks(3)
	require.NoError(t, err)
	chain, err := c.Chain(head)
	require.NoError(t, err)
	assert.NotContains(t, chain, int32(0))
	assert.Equal(t, format.SlotFree, c.Slot(0))
}

func TestAllocateBlocks_RollbackOnExhaustion(t *testing.T) {
	c, _, _ := newTestChains(t, 11)

	first, err := c.AllocateBlocks(8)
	require.NoError(t, err)

	// Only two blocks remain; asking for three must fail without leaking the two.
	_, err = c.AllocateBlocks(3)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, int64(2), c.FreeCount())

	chain, err := c.Chain(first)
	require.NoError(t, err)
	assert.Len(t, chain, 8)
}

func TestAllocateBlocks_RejectsOversizeAndBadCount(t *testing.T) {
	c, _, _ := newTestChains(t, 11)

	_, err := c.AllocateBlocks(11)
	require.ErrorIs(t, err, ErrNoSpace)
	_, err = c.AllocateBlocks(0)
	require.ErrorIs(t, err, ErrBadCount)
	assert.Equal(t, int64(10), c.FreeCount())
}

func TestReleaseBlocks_FreesWholeChain(t *testing.T) {
	c, _, _ := newTestChains(t, 11)

	head, err := c.AllocateBlocks(4)
	require.NoError(t, err)
	chain, err := c.Chain(head)
	require.NoError(t, err)

	n, err := c.ReleaseBlocks(head)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	for _, b := range chain {
		assert.Equal(t, format.SlotFree, c.Slot(b), "block %d", b)
	}
	assert.Equal(t, int64(10), c.FreeCount())

	// Freed blocks are reusable.
	head2, err := c.AllocateBlocks(10)
	require.NoError(t, err)
	chain2, err := c.Chain(head2)
	require.NoError(t, err)
	assert.Len(t, chain2, 10)
}

func TestReleaseBlocks_Errors(t *testing.T) {
	c, _, _ := newTestChains(t, 11)

	_, err := c.ReleaseBlocks(0)
	require.ErrorIs(t, err, ErrBadBlock)
	_, err = c.ReleaseBlocks(11)
	require.ErrorIs(t, err, ErrBadBlock)
	_, err = c.ReleaseBlocks(5)
	require.ErrorIs(t, err, ErrNotChained)
}

func TestReclaim_FreesRejectedBlocks(t *testing.T) {
	c, _, _ := newTestChains(t, 11)

	kept, err := c.AllocateBlocks(3)
	require.NoError(t, err)
	lost, err := c.AllocateBlocks(4)
	require.NoError(t, err)
	keepChain, err := c.Chain(kept)
	require.NoError(t, err)
	lostChain, err := c.Chain(lost)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.FreeCount())

	reachable := make(map[int32]bool)
	for _, b := range keepChain {
		reachable[b] = true
	}
	n := c.Reclaim(func(b int32) bool { return reachable[b] })
	assert.Equal(t, 4, n)
	assert.Equal(t, int64(7), c.FreeCount())
	for _, b := range lostChain {
		assert.Equal(t, format.SlotFree, c.Slot(b), "block %d", b)
	}
	got, err := c.Chain(kept)
	require.NoError(t, err)
	assert.Equal(t, keepChain, got)

	// Reclaimed blocks are reusable.
	_, err = c.AllocateBlocks(7)
	require.NoError(t, err)
	assert.Zero(t, c.Reclaim(func(int32) bool { return true }))
}

func TestWalkAndNext(t *testing.T) {
	c, _, _ := newTestChains(t, 11)

	head, err := c.AllocateBlocks(3)
	require.NoError(t, err)
	chain, _ := c.Chain(head)

	for i, want := range chain {
		got, err := c.Walk(head, int64(i))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = c.Walk(head, 3)
	require.ErrorIs(t, err, ErrChainTruncated)
	assert.Equal(t, int32(0), c.Next(chain[2]))
	assert.Equal(t, chain[1], c.Next(chain[0]))
}

func TestChain_DetectsCycle(t *testing.T) {
	c, h, _ := newTestChains(t, 6)

	head, err := c.AllocateBlocks(2)
	require.NoError(t, err)
	chain, _ := c.Chain(head)

	// Corrupt: point the terminal block back at the head.
	meta := h.Meta()
	off := int(h.Layout().IndexerSlot(chain[1]))
	meta[off] = byte(head)
	meta[off+1], meta[off+2], meta[off+3] = 0, 0, 0

	_, err = c.Chain(head)
	require.ErrorIs(t, err, ErrCycle)
}

func TestAllocateBlocks_MarksIndexerDirty(t *testing.T) {
	c, h, dt := newTestChains(t, 11)

	_, err := c.AllocateBlocks(2)
	require.NoError(t, err)

	pending := dt.Pending()
	require.NotEmpty(t, pending)
	assert.LessOrEqual(t, pending[0].Off, h.Layout().IndexerSlot(1))
}

func TestAllocateBlocks_ScanWrapsAroundHint(t *testing.T) {
	c, _, _ := newTestChains(t, 11)

	a, err := c.AllocateBlocks(9) // 1..9, hint moves to 10
	require.NoError(t, err)
	_, err = c.ReleaseBlocks(a)
	require.NoError(t, err)

	// hint was reset to 1 by the release; claim everything again.
	head, err := c.AllocateBlocks(10)
	require.NoError(t, err)
	chain, err := c.Chain(head)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, chain)
}

func TestAllocateBlocks_ConcurrentNoDoubleClaim(t *testing.T) {
	c, _, _ := newTestChains(t, 513)

	const workers = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		heads []int32
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				head, err := c.AllocateBlocks(1 + (w+i)%4)
				if errors.Is(err, ErrNoSpace) {
					continue
				}
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				heads = append(heads, head)
				mu.Unlock()
				if i%3 == 0 {
					mu.Lock()
					h := heads[len(heads)-1]
					heads = heads[:len(heads)-1]
					mu.Unlock()
					if _, err := c.ReleaseBlocks(h); err != nil {
						t.Error(err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[int32]int32)
	var used int64
	for _, h := range heads {
		chain, err := c.Chain(h)
		require.NoError(t, err)
		for _, b := range chain {
			owner, dup := seen[b]
			require.False(t, dup, "block %d in chains %d and %d", b, owner, h)
			seen[b] = h
		}
		used += int64(len(chain))
	}
	assert.Equal(t, c.BlockCount()-1-used, c.FreeCount())
}
