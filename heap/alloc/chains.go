package alloc

import (
	"fmt"
	"sync/atomic"

	"github.com/joshuapare/bufheap/heap"
	"github.com/joshuapare/bufheap/heap/dirty"
	"github.com/joshuapare/bufheap/internal/buf"
	"github.com/joshuapare/bufheap/internal/format"
)

// Chains is the block-chain allocator. All methods are safe for concurrent use.
type Chains struct {
	meta   []byte
	layout format.Layout
	dt     dirty.DirtyTracker

	// hint is the block id the next scan starts at.
	hint atomic.Int32
}

// New creates an allocator over h's indexer. dt may be nil.
func New(h *heap.Heap, dt dirty.DirtyTracker) (*Chains, error) {
	meta := h.Meta()
	layout := h.Layout()
	if int64(len(meta)) < layout.DirectOffset {
		return nil, fmt.Errorf("alloc: metadata mapping too short (%d < %d)", len(meta), layout.DirectOffset)
	}
	c := &Chains{meta: meta, layout: layout, dt: dt}
	c.hint.Store(1)
	return c, nil
}

// Layout returns the geometry the allocator was built for.
func (c *Chains) Layout() format.Layout { return c.layout }

// BlockSize returns the size of one block in bytes.
func (c *Chains) BlockSize() int64 { return c.layout.BlockSize }

// BlockCount returns the number of blocks including the reserved block 0.
func (c *Chains) BlockCount() int64 { return c.layout.BlockCount }

// BlocksFor returns how many blocks a buffer of size bytes occupies.
func (c *Chains) BlocksFor(size int64) int64 { return buf.CeilDiv(size, c.layout.BlockSize) }

func (c *Chains) slotOff(block int32) int {
	return int(c.layout.IndexerSlot(block))
}

// Slot returns the raw indexer value of block.
func (c *Chains) Slot(block int32) int32 {
	if block < 0 || int64(block) >= c.layout.BlockCount {
		return format.SlotFree
	}
	return buf.LoadI32(c.meta, c.slotOff(block))
}

// AllocateBlocks claims count free blocks, links them into a chain and returns
// the head block id.
func (c *Chains) AllocateBlocks(count int) (int32, error) {
	if count <= 0 {
		return 0, ErrBadCount
	}
	usable := int32(c.layout.BlockCount - 1)
	if int64(count) > int64(usable) {
		return 0, fmt.Errorf("%d blocks requested, %d exist: %w", count, usable, ErrNoSpace)
	}

	start := c.hint.Load()
	if start < 1 || start > usable {
		start = 1
	}

	var head, prev int32
	lo, hi := int32(-1), int32(-1) // dirty span of touched ids
	remaining := count

	for i := int32(0); i < usable && remaining > 0; i++ {
		id := start + i
		if id > usable {
			id -= usable
		}
		if !buf.CASI32(c.meta, c.slotOff(id), format.SlotFree, format.SlotTerminal) {
			continue
		}
		if head == 0 {
			head = id
		} else {
			buf.StoreI32(c.meta, c.slotOff(prev), id)
		}
		prev = id
		remaining--
		if lo < 0 || id < lo {
			lo = id
		}
		if id > hi {
			hi = id
		}
	}

	if remaining > 0 {
		if head != 0 {
			c.unlink(head)
			c.markDirty(lo, hi)
		}
		return 0, fmt.Errorf("%d of %d blocks unavailable: %w", remaining, count, ErrNoSpace)
	}

	next := prev + 1
	if next > usable {
		next = 1
	}
	c.hint.Store(next)
	c.markDirty(lo, hi)
	return head, nil
}

// ReleaseBlocks frees the chain starting at head and returns how many blocks
// were freed.
func (c *Chains) ReleaseBlocks(head int32) (int, error) {
	if !c.layout.ValidBlock(head) {
		return 0, fmt.Errorf("release block %d: %w", head, ErrBadBlock)
	}
	if c.Slot(head) == format.SlotFree {
		return 0, fmt.Errorf("release block %d: %w", head, ErrNotChained)
	}
	n, lo, hi := c.unlink(head)
	c.markDirty(lo, hi)
	if head < c.hint.Load() {
		// Let the next scan find the freed blocks early.
		c.hint.Store(head)
	}
	return n, nil
}

// Reclaim frees every claimed block that keep rejects and returns how many
// were freed. It must not run concurrently with allocation.
func (c *Chains) Reclaim(keep func(block int32) bool) int {
	var n int
	var lo, hi int32
	for id := int32(1); int64(id) < c.layout.BlockCount; id++ {
		off := c.slotOff(id)
		if buf.LoadI32(c.meta, off) == format.SlotFree || keep(id) {
			continue
		}
		buf.StoreI32(c.meta, off, format.SlotFree)
		if n == 0 {
			lo = id
		}
		hi = id
		n++
	}
	if n > 0 {
		c.markDirty(lo, hi)
		if lo < c.hint.Load() {
			c.hint.Store(lo)
		}
	}
	return n
}

// unlink resets every slot of the chain at head to free and returns the count
// plus the id span touched.
func (c *Chains) unlink(head int32) (n int, lo, hi int32) {
	lo, hi = head, head
	cur := head
	for int64(n) < c.layout.BlockCount {
		next := buf.SwapI32(c.meta, c.slotOff(cur), format.SlotFree)
		n++
		if cur < lo {
			lo = cur
		}
		if cur > hi {
			hi = cur
		}
		if !c.layout.ValidBlock(next) {
			break
		}
		cur = next
	}
	return n, lo, hi
}

func (c *Chains) markDirty(lo, hi int32) {
	if c.dt == nil || lo <= 0 {
		return
	}
	c.dt.Add(c.slotOff(lo), int(hi-lo+1)*format.IndexerSlotSize)
}

// Next returns the block following block in its chain, or 0 when block is the
// terminal block or not part of a chain.
func (c *Chains) Next(block int32) int32 {
	v := c.Slot(block)
	if !c.layout.ValidBlock(v) {
		return 0
	}
	return v
}

// Walk follows the chain from head for steps links and returns the block
// reached.
func (c *Chains) Walk(head int32, steps int64) (int32, error) {
	if !c.layout.ValidBlock(head) {
		return 0, fmt.Errorf("walk from %d: %w", head, ErrBadBlock)
	}
	if steps >= c.layout.BlockCount {
		return 0, fmt.Errorf("walk %d steps: %w", steps, ErrChainTruncated)
	}
	cur := head
	for i := int64(0); i < steps; i++ {
		next := c.Next(cur)
		if next == 0 {
			return 0, fmt.Errorf("walk from %d: step %d of %d: %w", head, i+1, steps, ErrChainTruncated)
		}
		cur = next
	}
	return cur, nil
}

// Chain returns every block id of the chain at head, in order.
func (c *Chains) Chain(head int32) ([]int32, error) {
	if !c.layout.ValidBlock(head) {
		return nil, fmt.Errorf("chain at %d: %w", head, ErrBadBlock)
	}
	if c.Slot(head) == format.SlotFree {
		return nil, fmt.Errorf("chain at %d: %w", head, ErrNotChained)
	}
	var out []int32
	cur := head
	for {
		out = append(out, cur)
		if int64(len(out)) > c.layout.UsableBlocks() {
			return out, fmt.Errorf("chain at %d: %w", head, ErrCycle)
		}
		v := c.Slot(cur)
		if v == format.SlotTerminal {
			return out, nil
		}
		if !c.layout.ValidBlock(v) {
			return out, fmt.Errorf("chain at %d: block %d has slot %d: %w", head, cur, v, ErrChainTruncated)
		}
		cur = v
	}
}

// FreeCount scans the indexer and returns the number of free blocks.
func (c *Chains) FreeCount() int64 {
	var n int64
	for id := int32(1); int64(id) < c.layout.BlockCount; id++ {
		if buf.LoadI32(c.meta, c.slotOff(id)) == format.SlotFree {
			n++
		}
	}
	return n
}
