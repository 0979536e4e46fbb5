// Package format houses the low-level encoders and decoders for the bufheap
// backing file. The layout is fixed and little-endian:
//
//	Offset                 Size                   Region
//	------                 ----                   ---------------------------
//	0x00                   20                     Header
//	0x14                   blockCount * 4         Indexer (one i32 per block)
//	IndexerEnd             32 KiB                 Direct record table
//	DirectEnd              4 KiB                  Overflow address table
//	AddressEnd             blockCount * blockSize Data region
//
// Nothing in this package touches files or mappings; it only knows how to
// compute offsets and how to encode the fixed-size structures.
package format

var (
	// Magic is the eight-byte symbol at the start of every backing file.
	// Layout:
	//   0x00  'B' 'U' 'F' 'H' 'E' 'A' 'P' 0x00
	Magic = []byte{'B', 'U', 'F', 'H', 'E', 'A', 'P', 0}
)

const (
	// Version is the only on-map format version this package reads and writes.
	Version = 1

	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 20

	// Header field offsets.
	MagicOffset      = 0x00
	MagicSize        = 8
	VersionOffset    = 0x08
	BlockSizeOffset  = 0x0C
	BlockCountOffset = 0x10

	// IndexerOffset is where the indexer starts (immediately after the header).
	IndexerOffset = HeaderSize

	// IndexerSlotSize is the width of one indexer slot.
	IndexerSlotSize = 4

	// DirectTableSize is the byte size of the direct record table.
	DirectTableSize = 32 * 1024

	// AddressTableSize is the byte size of the overflow address table.
	AddressTableSize = 4 * 1024

	// AddressSlotSize is the width of one overflow address slot (a block id).
	AddressSlotSize = 4

	// DirectCapacity is the number of records held by the direct table.
	DirectCapacity = DirectTableSize / RecordSize

	// AddressCapacity is the number of overflow blocks the address table can name.
	AddressCapacity = AddressTableSize / AddressSlotSize
)

// Indexer slot values.
const (
	// SlotFree marks a block that belongs to no chain.
	SlotFree int32 = 0

	// SlotTerminal marks the last block of a chain.
	SlotTerminal int32 = -1
)

// ReservedBlock is block id 0. It is physically present in the data region but
// never handed out, so 0 can mean "no block" everywhere.
const ReservedBlock = 0

const (
	// MinBlockSize keeps at least four records in an overflow block.
	MinBlockSize = 64

	// BlockSizeAlignment is the required alignment of the block size so that
	// records never straddle a block.
	BlockSizeAlignment = RecordSize

	// MinBlockCount is block 0 plus at least one usable block.
	MinBlockCount = 2

	// MaxBlockCount bounds the indexer to positive int32 block ids.
	MaxBlockCount = 1<<31 - 1
)

// Defaults used when a caller leaves a geometry field at zero.
const (
	DefaultBlockSize    = 32 * 1024
	DefaultDataCapacity = 2 * 1024 * 1024 * 1024
	DefaultPageSize     = 64 * 1024 * 1024
	DefaultPageWindow   = 16
)
