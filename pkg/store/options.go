package store

import (
	"github.com/joshuapare/bufheap/internal/format"
)

// Options controls store creation. Zero fields take the value from
// DefaultOptions.
type Options struct {
	// BlockSize is the allocation granularity in bytes. Must be a multiple of
	// 16 and at least 64. Ignored by Open, which reads it from the file.
	BlockSize int64

	// Capacity is the size of the data region in bytes, rounded up to whole
	// blocks. Ignored by Open.
	Capacity int64

	// PageSize is the size of one mapped page of the data region. Must be a
	// multiple of BlockSize.
	PageSize int64

	// PageWindow is the maximum number of resident pages.
	PageWindow int

	// MaxAllocation caps a single Allocate request. Zero means the largest
	// size the heap can hold.
	MaxAllocation int64

	// OnPageCreate is called each time the page cache maps a page.
	OnPageCreate func(pageIndex int64)
}

// DefaultOptions returns a 2 GiB heap of 32 KiB blocks, cached through 16
// pages of 64 MiB.
func DefaultOptions() Options {
	return Options{
		BlockSize:  format.DefaultBlockSize,
		Capacity:   format.DefaultDataCapacity,
		PageSize:   format.DefaultPageSize,
		PageWindow: format.DefaultPageWindow,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BlockSize == 0 {
		o.BlockSize = d.BlockSize
	}
	if o.Capacity == 0 {
		o.Capacity = d.Capacity
	}
	if o.PageWindow == 0 {
		o.PageWindow = d.PageWindow
	}
	return o
}

// pageSizeFor picks the page size for a heap of blockSize. An unset page size
// falls back to the default rounded down to whole blocks.
func (o Options) pageSizeFor(blockSize int64) int64 {
	if o.PageSize != 0 {
		return o.PageSize
	}
	ps := int64(format.DefaultPageSize)
	if ps < blockSize {
		return blockSize
	}
	return format.AlignDown(ps, blockSize)
}
