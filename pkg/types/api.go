package types

import (
	"errors"
	"time"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindCapacity ErrKind = iota // no free record slot or block chain
	ErrKindNotFound                // unknown or released buffer id
	ErrKindSize                    // zero or oversize allocation request
	ErrKindLayout                  // backing file geometry or header is invalid
	ErrKindState                   // operation on a closed store or view
	ErrKindRange                   // seek or position outside a buffer
	ErrKindIO                      // underlying file or mapping failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindCapacity:
		return "capacity"
	case ErrKindNotFound:
		return "not-found"
	case ErrKindSize:
		return "size"
	case ErrKindLayout:
		return "layout"
	case ErrKindState:
		return "state"
	case ErrKindRange:
		return "range"
	case ErrKindIO:
		return "io"
	}
	return "unknown"
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrCapacity)
// holds for every capacity failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Wrap returns a new error of the given kind wrapping cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Sentinels commonly returned by implementations.
var (
	// ErrCapacity indicates the heap has no free record slot or not enough free blocks.
	ErrCapacity = &Error{Kind: ErrKindCapacity, Msg: "buffer heap capacity exhausted"}
	// ErrNotFound indicates an unknown or already-released buffer id.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "buffer not found"}
	// ErrSize indicates a zero or oversize allocation request.
	ErrSize = &Error{Kind: ErrKindSize, Msg: "invalid allocation size"}
	// ErrLayout indicates the backing file or requested geometry is invalid.
	ErrLayout = &Error{Kind: ErrKindLayout, Msg: "invalid heap layout"}
	// ErrClosed indicates an operation on a closed store or view.
	ErrClosed = &Error{Kind: ErrKindState, Msg: "closed"}
	// ErrRange indicates a position outside the buffer.
	ErrRange = &Error{Kind: ErrKindRange, Msg: "position out of range"}
)

// -----------------------------------------------------------------------------
// Core Identifiers & Metadata
// -----------------------------------------------------------------------------

// ID is a buffer handle: the position of its allocation record across the
// direct and overflow record tables.
type ID int32

// InvalidID is returned by Allocate when no buffer could be created.
const InvalidID ID = -1

// Valid reports whether id is non-negative.
func (id ID) Valid() bool { return id >= 0 }

// BufferInfo describes one live buffer.
type BufferInfo struct {
	ID      ID
	Size    int64
	Head    int32
	Blocks  int
	Created time.Time
}
