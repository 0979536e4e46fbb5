// Package alloc implements the block-chain allocator over the heap's indexer.
//
// # Overview
//
// The data region is divided into fixed-size blocks identified by 1-based
// int32 ids (block 0 is reserved). Each block owns one 4-byte indexer slot:
//
//	 0   free
//	-1   terminal block of a chain
//	>0   id of the next block in the chain
//
// A buffer's payload lives in a chain of ceil(size/blockSize) blocks. The
// indexer is part of the resident metadata mapping, so walking a chain never
// touches the data region.
//
// # Allocation
//
// AllocateBlocks scans the block ids once, claiming free slots with a
// compare-and-swap from 0 to -1. The first claim becomes the head; every
// later claim is linked by storing its id into the previous claim's slot.
// Only the goroutine that claimed a block ever writes its slot, so the link
// store needs no further synchronization. If the scan runs out of blocks the
// partial chain is unlinked and ErrNoSpace is returned: a failed allocation
// never leaks blocks.
//
// The scan starts where the previous successful allocation stopped and wraps
// around, so every id is still visited exactly once per call.
//
// # Release
//
// ReleaseBlocks walks the chain swapping each slot to 0. The swap is atomic,
// so a concurrent AllocateBlocks can claim a freed block as soon as it is
// zero. Releasing a chain that another goroutine is still reading is a caller
// error: nothing here orders the two.
//
// # Usage Example
//
//	dt := dirty.NewTracker(h)
//	c, err := alloc.New(h, dt)
//	if err != nil {
//	    return err
//	}
//
//	head, err := c.AllocateBlocks(3)
//	if errors.Is(err, alloc.ErrNoSpace) {
//	    // capacity exhausted
//	}
//
//	third, _ := c.Walk(head, 2)
//	_, _ = c.ReleaseBlocks(head)
//
// # Related Packages
//
//   - github.com/joshuapare/bufheap/heap/directory: records that own chains
//   - github.com/joshuapare/bufheap/heap/dirty: tracks modified indexer ranges
package alloc
