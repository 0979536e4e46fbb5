package format

import (
	"fmt"

	"github.com/joshuapare/bufheap/internal/buf"
)

// RecordSize is the encoded size of one allocation record.
//
//	Offset  Size  Description
//	------  ----  -----------------------------------------
//	 0x00    4    Head block id (i32, 0 when unallocated)
//	 0x04    4    Size in bytes (u32)
//	 0x08    4    Timestamp, seconds since Epoch (u32)
//	 0x0C    4    Flags (u32)
const RecordSize = 16

// Record field offsets.
const (
	RecordHeadOffset  = 0x00
	RecordSizeOffset  = 0x04
	RecordStampOffset = 0x08
	RecordFlagsOffset = 0x0C
)

// Flags is the state word of a record.
type Flags uint32

const (
	// FlagUnallocated marks a free record slot.
	FlagUnallocated Flags = 0
	// FlagAllocated marks a live record; head and size are both non-zero.
	FlagAllocated Flags = 1
	// FlagPending marks a slot that is being claimed or released. Readers
	// treat it as not allocated.
	FlagPending Flags = 2
)

func (f Flags) String() string {
	switch f {
	case FlagUnallocated:
		return "unallocated"
	case FlagAllocated:
		return "allocated"
	case FlagPending:
		return "pending"
	}
	return fmt.Sprintf("flags(%d)", uint32(f))
}

// Record is the decoded form of an allocation record.
type Record struct {
	Head  int32
	Size  uint32
	Stamp uint32
	Flags Flags
}

// Live reports whether the record describes an allocated buffer.
func (r Record) Live() bool {
	return r.Flags == FlagAllocated && r.Head > 0 && r.Size > 0
}

// DecodeRecord reads a record from b[0:RecordSize].
func DecodeRecord(b []byte) (Record, error) {
	if !buf.Has(b, 0, RecordSize) {
		return Record{}, fmt.Errorf("record: %w", ErrTruncated)
	}
	return Record{
		Head:  buf.I32LE(b[RecordHeadOffset:]),
		Size:  buf.U32LE(b[RecordSizeOffset:]),
		Stamp: buf.U32LE(b[RecordStampOffset:]),
		Flags: Flags(buf.U32LE(b[RecordFlagsOffset:])),
	}, nil
}

// EncodeRecord writes r into b[0:RecordSize].
func EncodeRecord(b []byte, r Record) error {
	if !buf.Has(b, 0, RecordSize) {
		return fmt.Errorf("record: %w", ErrTruncated)
	}
	buf.PutI32LE(b[RecordHeadOffset:], r.Head)
	buf.PutU32LE(b[RecordSizeOffset:], r.Size)
	buf.PutU32LE(b[RecordStampOffset:], r.Stamp)
	buf.PutU32LE(b[RecordFlagsOffset:], uint32(r.Flags))
	return nil
}
