package format

import (
	"fmt"

	"github.com/joshuapare/bufheap/internal/buf"
)

// Layout holds the absolute offsets of every region in a backing file of a
// given geometry. All offsets are in bytes from the start of the file.
type Layout struct {
	BlockSize  int64
	BlockCount int64

	IndexerOffset int64
	DirectOffset  int64
	AddressOffset int64
	DataOffset    int64
	FileSize      int64
}

// NewLayout validates the geometry and computes region offsets.
func NewLayout(blockSize, blockCount int64) (Layout, error) {
	if blockSize < MinBlockSize || blockSize%BlockSizeAlignment != 0 || blockSize > 1<<31-1 {
		return Layout{}, fmt.Errorf(
			"block size %d must be a multiple of %d in [%d, 2^31): %w",
			blockSize, BlockSizeAlignment, MinBlockSize, ErrGeometry,
		)
	}
	if blockCount < MinBlockCount || blockCount > MaxBlockCount {
		return Layout{}, fmt.Errorf(
			"block count %d must be in [%d, %d]: %w",
			blockCount, MinBlockCount, MaxBlockCount, ErrGeometry,
		)
	}

	indexerLen := blockCount * IndexerSlotSize
	dataLen, ok := buf.MulOverflowSafe64(blockSize, blockCount)
	if !ok {
		return Layout{}, fmt.Errorf("data region overflows int64: %w", ErrGeometry)
	}

	l := Layout{
		BlockSize:     blockSize,
		BlockCount:    blockCount,
		IndexerOffset: IndexerOffset,
	}
	l.DirectOffset = l.IndexerOffset + indexerLen
	l.AddressOffset = l.DirectOffset + DirectTableSize
	l.DataOffset = l.AddressOffset + AddressTableSize
	l.FileSize = l.DataOffset + dataLen
	if l.FileSize < l.DataOffset {
		return Layout{}, fmt.Errorf("file size overflows int64: %w", ErrGeometry)
	}
	return l, nil
}

// LayoutForCapacity picks the block count that gives a data region of at
// least capacity bytes (plus the reserved block 0).
func LayoutForCapacity(blockSize, capacity int64) (Layout, error) {
	if blockSize <= 0 {
		return Layout{}, fmt.Errorf("block size %d: %w", blockSize, ErrGeometry)
	}
	return NewLayout(blockSize, buf.CeilDiv(capacity, blockSize)+1)
}

// MetaSize is the length of everything that precedes the data region.
func (l Layout) MetaSize() int64 { return l.DataOffset }

// IndexerSlot returns the absolute offset of block's indexer slot.
func (l Layout) IndexerSlot(block int32) int64 {
	return l.IndexerOffset + int64(block)*IndexerSlotSize
}

// DirectRecord returns the absolute offset of record slot in the direct table.
func (l Layout) DirectRecord(slot int) int64 {
	return l.DirectOffset + int64(slot)*RecordSize
}

// AddressSlot returns the absolute offset of an overflow address table entry.
func (l Layout) AddressSlot(ordinal int) int64 {
	return l.AddressOffset + int64(ordinal)*AddressSlotSize
}

// BlockOffset returns the absolute offset of a block in the data region.
func (l Layout) BlockOffset(block int32) int64 {
	return l.DataOffset + int64(block)*l.BlockSize
}

// RecordsPerOverflowBlock is how many records fit in one overflow block.
func (l Layout) RecordsPerOverflowBlock() int {
	return int(l.BlockSize / RecordSize)
}

// MaxRecords is the total number of ids addressable through both tables.
func (l Layout) MaxRecords() int64 {
	return DirectCapacity + int64(AddressCapacity)*int64(l.RecordsPerOverflowBlock())
}

// ValidBlock reports whether id names an allocatable block.
func (l Layout) ValidBlock(id int32) bool {
	return id > ReservedBlock && int64(id) < l.BlockCount
}

// UsableBlocks is the number of allocatable blocks (block 0 excluded).
func (l Layout) UsableBlocks() int64 { return l.BlockCount - 1 }

// Header returns the header describing this layout.
func (l Layout) Header() Header {
	return Header{
		Version:    Version,
		BlockSize:  uint32(l.BlockSize),
		BlockCount: uint32(l.BlockCount),
	}
}

// CheckFileSize reports ErrFileSize if size is not exactly FileSize.
func (l Layout) CheckFileSize(size int64) error {
	if size != l.FileSize {
		return fmt.Errorf("have %d bytes, want %d: %w", size, l.FileSize, ErrFileSize)
	}
	return nil
}
