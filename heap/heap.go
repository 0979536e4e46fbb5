package heap

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/bufheap/internal/buf"
	"github.com/joshuapare/bufheap/internal/format"
	"github.com/joshuapare/bufheap/internal/mmfile"
)

const fileMode = 0o600

// ErrBigEndianHost is returned on hosts whose native byte order does not match
// the file format; indexer and flag words are updated atomically in place.
var ErrBigEndianHost = errors.New("heap: big-endian hosts are not supported")

// Heap is an open backing file with its metadata region mapped.
type Heap struct {
	f      *os.File
	path   string
	layout format.Layout
	meta   *mmfile.Mapping
}

// Create creates (or truncates) the file at path, sizes it for layout, and
// writes a fresh header. All indexer slots and records start zeroed.
func Create(path string, layout format.Layout) (*Heap, error) {
	if !buf.HostLittleEndian() {
		return nil, ErrBigEndianHost
	}
	// Recompute offsets so a hand-built Layout cannot disagree with its geometry.
	layout, err := format.NewLayout(layout.BlockSize, layout.BlockCount)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return nil, err
	}
	// Truncate extends with zeros; on most filesystems the data region stays sparse.
	if err := f.Truncate(layout.FileSize); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("heap: size backing file: %w", err)
	}

	h, err := attach(f, path, layout)
	if err != nil {
		return nil, err
	}
	if err := layout.Header().Encode(h.meta.Bytes()); err != nil {
		_ = h.Close()
		return nil, err
	}
	if err := h.meta.Sync(0, format.HeaderSize); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("heap: sync header: %w", err)
	}
	return h, nil
}

// Open reattaches to an existing backing file. The header must parse and the
// file length must equal the layout it describes.
func Open(path string) (*Heap, error) {
	if !buf.HostLittleEndian() {
		return nil, ErrBigEndianHost
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	hdr := make([]byte, format.HeaderSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, format.HeaderSize), hdr); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("heap: read header: %w", format.ErrTruncated)
	}
	header, err := format.ParseHeader(hdr)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	layout, err := header.Layout()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := layout.CheckFileSize(st.Size()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("heap: %s: %w", path, err)
	}
	return attach(f, path, layout)
}

func attach(f *os.File, path string, layout format.Layout) (*Heap, error) {
	meta, err := mmfile.MapRange(f, 0, layout.MetaSize())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("heap: map metadata: %w", err)
	}
	meta.Advise()
	return &Heap{f: f, path: path, layout: layout, meta: meta}, nil
}

// Close unmaps the metadata and closes the file. It does not flush; callers
// that need durability call SyncMeta/SyncFile first.
func (h *Heap) Close() error {
	if h == nil {
		return nil
	}
	var err error
	if h.meta != nil {
		err = h.meta.Unmap()
		h.meta = nil
	}
	if h.f != nil {
		if cerr := h.f.Close(); err == nil {
			err = cerr
		}
		h.f = nil
	}
	return err
}

// Meta returns the metadata mapping. Offsets into it are absolute file
// offsets because the mapping starts at 0.
func (h *Heap) Meta() []byte {
	if h == nil || h.meta == nil {
		return nil
	}
	return h.meta.Bytes()
}

// Layout returns the region offsets of this file.
func (h *Heap) Layout() format.Layout { return h.layout }

// File returns the backing file. The data region is mapped through it.
func (h *Heap) File() *os.File { return h.f }

// Path returns the backing file path.
func (h *Heap) Path() string { return h.path }

// SyncMeta flushes metadata bytes [off, off+n) to the file. The range is
// clipped to the metadata region.
func (h *Heap) SyncMeta(off, n int) error {
	if h == nil || h.meta == nil {
		return mmfile.ErrUnmapped
	}
	if end := off + n; end > h.meta.Len() {
		n = h.meta.Len() - off
	}
	if n <= 0 {
		return nil
	}
	return h.meta.Sync(off, n)
}

// SyncFile fsyncs the backing file descriptor.
func (h *Heap) SyncFile() error {
	if h == nil || h.f == nil {
		return os.ErrClosed
	}
	return h.f.Sync()
}
