package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/bufheap/internal/buf"
)

// Header is the fixed 20-byte file header.
//
//	Offset  Size  Description
//	------  ----  -----------------------------
//	 0x00    8    Magic "BUFHEAP\0"
//	 0x08    4    Format version
//	 0x0C    4    Block size in bytes
//	 0x10    4    Block count (including reserved block 0)
type Header struct {
	Version    uint32
	BlockSize  uint32
	BlockCount uint32
}

// ParseHeader validates and decodes the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if !buf.Has(b, 0, HeaderSize) {
		return Header{}, fmt.Errorf("header: %w", ErrTruncated)
	}
	if !bytes.Equal(b[MagicOffset:MagicOffset+MagicSize], Magic) {
		return Header{}, fmt.Errorf("header: %w", ErrSignatureMismatch)
	}
	h := Header{
		Version:    buf.U32LE(b[VersionOffset:]),
		BlockSize:  buf.U32LE(b[BlockSizeOffset:]),
		BlockCount: buf.U32LE(b[BlockCountOffset:]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("header: version %d: %w", h.Version, ErrVersion)
	}
	return h, nil
}

// Encode writes the header into b[0:HeaderSize].
func (h Header) Encode(b []byte) error {
	if !buf.Has(b, 0, HeaderSize) {
		return fmt.Errorf("header: %w", ErrTruncated)
	}
	copy(b[MagicOffset:], Magic)
	buf.PutU32LE(b[VersionOffset:], h.Version)
	buf.PutU32LE(b[BlockSizeOffset:], h.BlockSize)
	buf.PutU32LE(b[BlockCountOffset:], h.BlockCount)
	return nil
}

// Layout derives the region offsets described by this header.
func (h Header) Layout() (Layout, error) {
	return NewLayout(int64(h.BlockSize), int64(h.BlockCount))
}
