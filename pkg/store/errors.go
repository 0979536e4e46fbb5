package store

import (
	"errors"

	"github.com/joshuapare/bufheap/heap"
	"github.com/joshuapare/bufheap/heap/alloc"
	"github.com/joshuapare/bufheap/heap/directory"
	"github.com/joshuapare/bufheap/heap/pagecache"
	"github.com/joshuapare/bufheap/internal/format"
	"github.com/joshuapare/bufheap/pkg/types"
)

// classify maps errors from the heap packages onto the public error kinds.
// Errors that already carry a kind are returned unchanged.
func classify(msg string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := types.KindOf(err); ok {
		return err
	}
	switch {
	case errors.Is(err, alloc.ErrNoSpace), errors.Is(err, directory.ErrTableFull):
		return types.Wrap(types.ErrKindCapacity, msg, err)
	case errors.Is(err, directory.ErrNotAllocated), errors.Is(err, directory.ErrInvalidID):
		return types.Wrap(types.ErrKindNotFound, msg, err)
	case errors.Is(err, directory.ErrSize):
		return types.Wrap(types.ErrKindSize, msg, err)
	case errors.Is(err, pagecache.ErrClosed):
		return types.Wrap(types.ErrKindState, msg, err)
	case errors.Is(err, format.ErrSignatureMismatch),
		errors.Is(err, format.ErrTruncated),
		errors.Is(err, format.ErrVersion),
		errors.Is(err, format.ErrGeometry),
		errors.Is(err, format.ErrFileSize),
		errors.Is(err, heap.ErrBigEndianHost),
		errors.Is(err, pagecache.ErrPageGeometry),
		errors.Is(err, pagecache.ErrWindow):
		return types.Wrap(types.ErrKindLayout, msg, err)
	}
	return types.Wrap(types.ErrKindIO, msg, err)
}
