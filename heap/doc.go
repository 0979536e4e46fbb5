// Package heap opens and creates bufheap backing files.
//
// # Overview
//
// A backing file is one contiguous region laid out as:
//
//	Header | Indexer | Direct Record Table | Overflow Address Table | Data Region
//
// (see internal/format for the byte-level layout). Everything before the data
// region is "metadata" and is small enough to stay resident: Heap maps it once
// at open time and keeps the mapping for its whole lifetime. The data region is
// usually far larger than the address space we want to commit, so it is never
// mapped here; heap/pagecache maps bounded windows of it on demand.
//
// # Persistence
//
// The metadata mapping is MAP_SHARED, so allocator and directory state lives in
// the file itself. Create always starts from a zeroed file; Open reattaches to
// an existing file and refuses to proceed if its header or total length does
// not match a valid layout.
//
// # Related Packages
//
//   - github.com/joshuapare/bufheap/heap/alloc: block-chain allocator over the indexer
//   - github.com/joshuapare/bufheap/heap/directory: allocation record tables
//   - github.com/joshuapare/bufheap/heap/pagecache: bounded data-region windows
//   - github.com/joshuapare/bufheap/heap/view: per-buffer read/write cursor
//   - github.com/joshuapare/bufheap/heap/dirty: metadata dirty tracking and flush
package heap
