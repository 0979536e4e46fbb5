package alloc

import "errors"

var (
	// ErrNoSpace indicates that not enough free blocks exist for the request.
	ErrNoSpace = errors.New("alloc: not enough free blocks")

	// ErrBadCount indicates a non-positive block count.
	ErrBadCount = errors.New("alloc: block count must be positive")

	// ErrBadBlock indicates an out-of-range or reserved block id.
	ErrBadBlock = errors.New("alloc: bad block id")

	// ErrNotChained indicates a release or walk starting at a free block.
	ErrNotChained = errors.New("alloc: block is not part of a chain")

	// ErrChainTruncated indicates a chain ended before the requested step.
	ErrChainTruncated = errors.New("alloc: chain shorter than expected")

	// ErrCycle indicates a chain that revisits a block.
	ErrCycle = errors.New("alloc: chain contains a cycle")
)
