// Package dirty tracks modified byte ranges of the heap's metadata mapping and
// flushes them to disk.
//
// # Overview
//
// The allocator and the allocation directory mutate the indexer and record
// tables in place. Every mutation reports its range to a DirtyTracker. At a
// durability point (Store.Flush, Store.Close) the Tracker page-aligns, sorts
// and merges the ranges and flushes each one with msync (or a write-back on
// platforms without mmap), optionally followed by an fsync of the file.
//
// # Range Coalescing
//
// Ranges are rounded out to OS page boundaries and merged when they overlap
// or touch:
//
//	Dirty: [0x18,+4) [0x1c,+4) [0x9010,+16) → Flushed: [0x0,0x1000) [0x9000,0xa000)
//
// # Thread Safety
//
// Unlike the allocator state it protects, Tracker is safe for concurrent use:
// Add is called from every goroutine that allocates or releases.
package dirty
