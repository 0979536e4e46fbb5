package directory

import "errors"

var (
	// ErrInvalidID is returned for an id outside both record tables.
	ErrInvalidID = errors.New("directory: invalid id")

	// ErrNotAllocated is returned when an id names a free record.
	ErrNotAllocated = errors.New("directory: id not allocated")

	// ErrTableFull is returned when every direct and overflow record is in use.
	ErrTableFull = errors.New("directory: record tables full")

	// ErrSize is returned for a zero, negative or unrepresentable size.
	ErrSize = errors.New("directory: bad allocation size")
)
