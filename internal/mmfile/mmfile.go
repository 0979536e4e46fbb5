// Package mmfile provides platform-specific helpers for mapping windows of the
// backing file read/write.
//
// A Mapping covers an arbitrary byte range of a file. Operating systems only
// map at page-aligned offsets, so the mapping itself starts at the enclosing
// page boundary and Bytes returns the sub-slice the caller asked for.
package mmfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrUnmapped is returned by operations on a mapping that was already released.
var ErrUnmapped = errors.New("mmfile: mapping released")

// Mapping is one read/write view of a file range.
type Mapping struct {
	f     *os.File
	raw   []byte // whole mapping, starts on an OS page boundary
	data  []byte // raw[delta:delta+length]
	off   int64  // file offset of data[0]
	delta int64  // off - file offset of raw[0]
}

// Bytes returns the mapped range. The slice is invalid after Unmap.
func (m *Mapping) Bytes() []byte { return m.data }

// Offset returns the file offset of Bytes()[0].
func (m *Mapping) Offset() int64 { return m.off }

// Len returns the length of the mapped range.
func (m *Mapping) Len() int { return len(m.data) }

// Sync flushes Bytes()[off:off+n] to the file. The range is widened to OS
// page boundaries.
func (m *Mapping) Sync(off, n int) error {
	if m.raw == nil {
		return ErrUnmapped
	}
	if off < 0 || n < 0 || off+n > len(m.data) {
		return fmt.Errorf("mmfile: sync range [%d,%d) outside mapping of %d bytes", off, off+n, len(m.data))
	}
	if n == 0 {
		return nil
	}
	ps := int64(PageSize())
	start := (int64(off) + m.delta) / ps * ps
	end := int64(off+n) + m.delta
	if r := end % ps; r != 0 {
		end += ps - r
	}
	if end > int64(len(m.raw)) {
		end = int64(len(m.raw))
	}
	return m.syncRaw(int(start), int(end))
}

// Flush flushes the whole mapping to the file.
func (m *Mapping) Flush() error {
	if m.raw == nil {
		return ErrUnmapped
	}
	return m.syncRaw(0, len(m.raw))
}

func checkRange(f *os.File, off, length int64) error {
	if f == nil {
		return errors.New("mmfile: nil file")
	}
	if off < 0 || length <= 0 {
		return fmt.Errorf("mmfile: invalid range off=%d len=%d", off, length)
	}
	if length > int64(^uint(0)>>1) {
		return fmt.Errorf("mmfile: range too large to map (%d bytes)", length)
	}
	return nil
}
