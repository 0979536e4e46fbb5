package dirty

// DirtyTracker is the minimal interface for tracking dirty (modified) byte ranges.
// off is the offset from the start of the file, length is the number of bytes.
//
// This interface is intended for components that only need to notify about dirty
// regions but don't manage flushing themselves (allocator, directory).
type DirtyTracker interface {
	Add(off, length int)
}

// Syncer is what Tracker flushes through. *heap.Heap implements it.
type Syncer interface {
	SyncMeta(off, n int) error
	SyncFile() error
}
