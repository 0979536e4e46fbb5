package pagecache

import "errors"

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("pagecache: closed")

	// ErrPageGeometry indicates a page size that is not a positive multiple of
	// the block size.
	ErrPageGeometry = errors.New("pagecache: page size must be a positive multiple of block size")

	// ErrWindow indicates a window smaller than one page.
	ErrWindow = errors.New("pagecache: window must be at least 1")

	// ErrBlock is returned for a block id outside the data region.
	ErrBlock = errors.New("pagecache: block out of range")

	// ErrOffset is returned when a block offset is outside [0, blockSize).
	ErrOffset = errors.New("pagecache: offset outside block")

	// ErrWrongPage is returned when a block is acquired through a page that
	// does not contain it.
	ErrWrongPage = errors.New("pagecache: block not on page")

	// errPageClosed reports that a page was evicted between lookup and
	// acquire. Cache.Acquire retries on it.
	errPageClosed = errors.New("pagecache: page evicted")
)
