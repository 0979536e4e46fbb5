// Package view implements a seekable read/write cursor over one allocated
// buffer.
//
// Payload bytes move through the page cache one block at a time. The chain is
// followed through the resident indexer, never through the page cache.
package view

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/bufheap/heap/pagecache"
	"github.com/joshuapare/bufheap/internal/format"
	"github.com/joshuapare/bufheap/pkg/types"
)

// ErrChainEnd is returned when a chain is shorter than the buffer size says.
var ErrChainEnd = errors.New("view: block chain ends before buffer end")

// Chains is the chain navigation a View needs.
type Chains interface {
	Walk(head int32, steps int64) (int32, error)
	Next(block int32) int32
}

// Pager hands out locked cursors over block bytes.
type Pager interface {
	Acquire(block int32, blockOffset int64, count int) (*pagecache.Cursor, error)
}

// View is a cursor over bytes [0, Len()) of one buffer. A View is not safe for
// concurrent use; open one view per goroutine.
type View struct {
	id        int32
	head      int32
	size      int64
	blockSize int64
	chains    Chains
	pages     Pager

	pos     int64
	closed  bool
	onClose func(id int32) error
}

var (
	_ io.ReadWriteSeeker = (*View)(nil)
	_ io.ReaderAt        = (*View)(nil)
	_ io.WriterAt        = (*View)(nil)
	_ io.Closer          = (*View)(nil)
)

// New returns a view over rec. When onClose is non-nil, Close calls it with
// id; this is how owning views release their buffer.
func New(id int32, rec format.Record, blockSize int64, chains Chains, pages Pager, onClose func(id int32) error) *View {
	return &View{
		id:        id,
		head:      rec.Head,
		size:      int64(rec.Size),
		blockSize: blockSize,
		chains:    chains,
		pages:     pages,
		onClose:   onClose,
	}
}

// ID returns the buffer id.
func (v *View) ID() int32 { return v.id }

// Len returns the buffer size in bytes.
func (v *View) Len() int64 { return v.size }

// Position returns the current offset.
func (v *View) Position() int64 { return v.pos }

// Owning reports whether Close releases the buffer.
func (v *View) Owning() bool { return v.onClose != nil }

func (v *View) Read(p []byte) (int, error) {
	if v.closed {
		return 0, types.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if v.pos >= v.size {
		return 0, io.EOF
	}
	n, err := v.transfer(p, v.pos, false)
	v.pos += int64(n)
	return n, err
}

// ReadAt reads len(p) bytes at off. It returns io.EOF when fewer bytes
// remain.
func (v *View) ReadAt(p []byte, off int64) (int, error) {
	if v.closed {
		return 0, types.ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: %w", off, types.ErrRange)
	}
	if off >= v.size {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n, err := v.transfer(p, off, false)
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}

// Write writes p at the current position. Buffers never grow: bytes past
// Len() are not written and io.ErrShortWrite is returned.
func (v *View) Write(p []byte) (int, error) {
	if v.closed {
		return 0, types.ErrClosed
	}
	n, err := v.transfer(p, v.pos, true)
	v.pos += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// WriteAt writes p at off without moving the position.
func (v *View) WriteAt(p []byte, off int64) (int, error) {
	if v.closed {
		return 0, types.ErrClosed
	}
	if off < 0 || off > v.size {
		return 0, fmt.Errorf("write at %d: %w", off, types.ErrRange)
	}
	n, err := v.transfer(p, off, true)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// Seek sets the position. The result must lie in [0, Len()].
func (v *View) Seek(offset int64, whence int) (int64, error) {
	if v.closed {
		return 0, types.ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = v.pos + offset
	case io.SeekEnd:
		abs = v.size + offset
	default:
		return 0, fmt.Errorf("seek whence %d: %w", whence, types.ErrRange)
	}
	if abs < 0 || abs > v.size {
		return 0, fmt.Errorf("seek to %d of %d: %w", abs, v.size, types.ErrRange)
	}
	v.pos = abs
	return abs, nil
}

// Close invalidates the view and, for an owning view, releases the buffer.
// Closing twice is a no-op.
func (v *View) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	if v.onClose != nil {
		return v.onClose(v.id)
	}
	return nil
}

// transfer copies between p and the buffer starting at pos, clamped to the
// buffer size.
func (v *View) transfer(p []byte, pos int64, write bool) (int, error) {
	want := len(p)
	if rest := v.size - pos; int64(want) > rest {
		want = int(max(rest, 0))
	}
	if want == 0 {
		return 0, nil
	}

	blk, err := v.chains.Walk(v.head, pos/v.blockSize)
	if err != nil {
		return 0, fmt.Errorf("view %d at %d: %w", v.id, pos, errors.Join(ErrChainEnd, err))
	}
	off := pos % v.blockSize

	n := 0
	for {
		cur, err := v.pages.Acquire(blk, off, want-n)
		if err != nil {
			return n, fmt.Errorf("view %d block %d: %w", v.id, blk, err)
		}
		if write {
			copy(cur.Bytes(), p[n:want])
			cur.MarkDirty()
		} else {
			copy(p[n:want], cur.Bytes())
		}
		n += cur.Len()
		cur.Release()

		if n >= want {
			return n, nil
		}
		if blk = v.chains.Next(blk); blk == 0 {
			return n, fmt.Errorf("view %d after %d bytes: %w", v.id, pos+int64(n), ErrChainEnd)
		}
		off = 0
	}
}
