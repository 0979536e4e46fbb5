package dirty

import (
	"context"
	"slices"
	"sync"

	"github.com/joshuapare/bufheap/internal/format"
	"github.com/joshuapare/bufheap/internal/mmfile"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// compactThreshold bounds the raw range list; past it Add coalesces in place.
	compactThreshold = 4096
)

// FlushMode controls durability guarantees of Flush.
type FlushMode int

const (
	// FlushAuto msyncs dirty metadata ranges and then fsyncs the file.
	FlushAuto FlushMode = iota

	// FlushDataOnly only msyncs dirty metadata ranges.
	// The caller is responsible for syncing the file descriptor later.
	FlushDataOnly
)

// Range represents a dirty byte range (absolute file offsets).
type Range struct {
	Off int64 // Absolute offset in file
	Len int64 // Length in bytes
}

// Tracker accumulates dirty ranges and flushes them efficiently.
type Tracker struct {
	s        Syncer
	mu       sync.Mutex
	ranges   []Range
	pageSize int64
}

// NewTracker creates a dirty tracker flushing through s.
func NewTracker(s Syncer) *Tracker {
	return &Tracker{
		s:        s,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(mmfile.PageSize()),
	}
}

// Add records a dirty range. The range is page-aligned and coalesced with
// other ranges at flush time.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.mu.Lock()
	t.ranges = append(t.ranges, Range{Off: int64(off), Len: int64(length)})
	if len(t.ranges) >= compactThreshold {
		t.ranges = append(t.ranges[:0], coalesce(t.ranges, t.pageSize)...)
	}
	t.mu.Unlock()
}

// Flush flushes every dirty range and, unless mode is FlushDataOnly, fsyncs
// the file. Ranges added while a flush is running are kept for the next one.
//
// The context can be used to cancel between ranges. If cancelled or failed,
// the ranges taken by this flush are tracked again.
func (t *Tracker) Flush(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	taken := t.ranges
	t.ranges = make([]Range, 0, defaultRangeCapacity)
	t.mu.Unlock()

	for _, r := range coalesce(taken, t.pageSize) {
		err := ctx.Err()
		if err == nil {
			err = t.s.SyncMeta(int(r.Off), int(r.Len))
		}
		if err != nil {
			t.mu.Lock()
			t.ranges = append(t.ranges, taken...)
			t.mu.Unlock()
			return err
		}
	}

	if mode == FlushDataOnly {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.s.SyncFile()
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.ranges = t.ranges[:0]
	t.mu.Unlock()
}

// Pending returns the coalesced ranges a Flush would write (for testing/debugging).
func (t *Tracker) Pending() []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	return coalesce(t.ranges, t.pageSize)
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func coalesce(ranges []Range, pageSize int64) []Range {
	if len(ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(ranges))
	for i, r := range ranges {
		start := format.AlignDown(r.Off, pageSize)
		end := format.AlignUp(r.Off+r.Len, pageSize)
		aligned[i] = Range{Off: start, Len: end - start}
	}

	slices.SortFunc(aligned, func(a, b Range) int {
		switch {
		case a.Off < b.Off:
			return -1
		case a.Off > b.Off:
			return 1
		}
		return 0
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.Off+current.Len {
			if end := next.Off + next.Len; end > current.Off+current.Len {
				current.Len = end - current.Off
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
