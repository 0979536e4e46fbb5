package directory

import (
	"fmt"

	"github.com/joshuapare/bufheap/internal/format"
)

// Kind tells which table a record lives in.
type Kind uint8

const (
	KindDirect Kind = iota + 1
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindOverflow:
		return "overflow"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Location is where the record of an id is stored.
//
// For KindDirect, Offset is the absolute offset of the record in the metadata
// mapping. For KindOverflow, Ordinal selects the overflow address table entry
// and Offset is the byte offset of the record inside that block.
type Location struct {
	Kind    Kind
	Offset  int64
	Ordinal int
}

// resolveSlot is the single id addressing function.
func resolveSlot(l format.Layout, id int32) (Location, error) {
	if id < 0 || int64(id) >= l.MaxRecords() {
		return Location{}, fmt.Errorf("id %d: %w", id, ErrInvalidID)
	}
	if id < format.DirectCapacity {
		return Location{Kind: KindDirect, Offset: l.DirectRecord(int(id))}, nil
	}
	rel := int64(id) - format.DirectCapacity
	per := int64(l.RecordsPerOverflowBlock())
	return Location{
		Kind:    KindOverflow,
		Ordinal: int(rel / per),
		Offset:  (rel % per) * format.RecordSize,
	}, nil
}

// overflowID is the inverse of resolveSlot for overflow records.
// Ids that do not fit an int32 are unreachable.
func overflowID(l format.Layout, ordinal, slot int) int64 {
	return format.DirectCapacity + int64(ordinal)*int64(l.RecordsPerOverflowBlock()) + int64(slot)
}
