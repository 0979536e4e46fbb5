package directory

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/joshuapare/bufheap/heap"
	"github.com/joshuapare/bufheap/heap/alloc"
	"github.com/joshuapare/bufheap/heap/dirty"
	"github.com/joshuapare/bufheap/heap/pagecache"
	"github.com/joshuapare/bufheap/internal/buf"
	"github.com/joshuapare/bufheap/internal/format"
	"github.com/joshuapare/bufheap/internal/logger"
)

// MaxSize is the largest size a record can describe.
const MaxSize = math.MaxUint32

// Directory allocates, resolves and releases buffer records.
type Directory struct {
	meta   []byte
	layout format.Layout
	chains *alloc.Chains
	pages  *pagecache.Cache
	dt     dirty.DirtyTracker

	live atomic.Int64

	// now is swapped by tests.
	now func() time.Time
}

// New attaches a directory to h. Records left pending by an interrupted
// process are cleared and the live count is rebuilt from the tables, so New
// must run before the directory is shared. dt may be nil.
func New(h *heap.Heap, chains *alloc.Chains, pages *pagecache.Cache, dt dirty.DirtyTracker) (*Directory, error) {
	d := &Directory{
		meta:   h.Meta(),
		layout: h.Layout(),
		chains: chains,
		pages:  pages,
		dt:     dt,
		now:    time.Now,
	}
	if int64(len(d.meta)) < d.layout.DataOffset {
		return nil, fmt.Errorf("directory: metadata mapping too short (%d < %d)", len(d.meta), d.layout.DataOffset)
	}
	if err := d.recover(); err != nil {
		return nil, err
	}
	return d, nil
}

// Live returns the number of allocated records. The count is best effort
// under concurrent Allocate and Release.
func (d *Directory) Live() int64 { return d.live.Load() }

// Allocate claims a record and a block chain for a buffer of size bytes and
// returns the new id.
func (d *Directory) Allocate(size int64) (int32, error) {
	if size <= 0 || size > MaxSize {
		return -1, fmt.Errorf("size %d: %w", size, ErrSize)
	}
	count := d.chains.BlocksFor(size)
	if count > d.layout.UsableBlocks() {
		return -1, fmt.Errorf("size %d needs %d blocks, heap has %d: %w", size, count, d.layout.UsableBlocks(), alloc.ErrNoSpace)
	}

	for slot := 0; slot < format.DirectCapacity; slot++ {
		off := d.layout.DirectRecord(slot)
		flagsOff := int(off) + format.RecordFlagsOffset
		if buf.LoadU32(d.meta, flagsOff) != uint32(format.FlagUnallocated) {
			continue
		}
		if !buf.CASU32(d.meta, flagsOff, uint32(format.FlagUnallocated), uint32(format.FlagPending)) {
			continue
		}
		head, err := d.chains.AllocateBlocks(int(count))
		if err != nil {
			buf.StoreU32(d.meta, flagsOff, uint32(format.FlagUnallocated))
			return -1, err
		}
		o := int(off)
		buf.StoreI32(d.meta, o+format.RecordHeadOffset, head)
		buf.StoreU32(d.meta, o+format.RecordSizeOffset, uint32(size))
		buf.StoreU32(d.meta, o+format.RecordStampOffset, format.TimeToStamp(d.now()))
		buf.StoreU32(d.meta, flagsOff, uint32(format.FlagAllocated))
		d.markDirty(off, format.RecordSize)
		d.live.Add(1)
		return int32(slot), nil
	}

	return d.allocateOverflow(size, int(count))
}

func (d *Directory) allocateOverflow(size int64, count int) (int32, error) {
	per := d.layout.RecordsPerOverflowBlock()
	for ord := 0; ord < format.AddressCapacity; ord++ {
		if overflowID(d.layout, ord, 0) > math.MaxInt32 {
			break
		}
		blk, err := d.overflowBlock(ord, true)
		if err != nil {
			return -1, err
		}
		id, found, err := d.claimInBlock(blk, ord, per, size, count)
		if err != nil {
			return -1, err
		}
		if found {
			return id, nil
		}
	}
	return -1, fmt.Errorf("%d records in use: %w", d.layout.MaxRecords(), ErrTableFull)
}

// claimInBlock scans one overflow block for a free record under its page lock.
func (d *Directory) claimInBlock(blk int32, ord, per int, size int64, count int) (int32, bool, error) {
	cur, err := d.pages.Acquire(blk, 0, int(d.layout.BlockSize))
	if err != nil {
		return -1, false, fmt.Errorf("overflow block %d: %w", blk, err)
	}
	defer cur.Release()

	b := cur.Bytes()
	for slot := 0; slot < per; slot++ {
		id := overflowID(d.layout, ord, slot)
		if id > math.MaxInt32 {
			return -1, false, nil
		}
		rb := b[slot*format.RecordSize : (slot+1)*format.RecordSize]
		if format.Flags(buf.U32LE(rb[format.RecordFlagsOffset:])) != format.FlagUnallocated {
			continue
		}
		buf.PutU32LE(rb[format.RecordFlagsOffset:], uint32(format.FlagPending))
		head, err := d.chains.AllocateBlocks(count)
		if err != nil {
			buf.PutU32LE(rb[format.RecordFlagsOffset:], uint32(format.FlagUnallocated))
			return -1, false, err
		}
		if err := format.EncodeRecord(rb, format.Record{
			Head:  head,
			Size:  uint32(size),
			Stamp: format.TimeToStamp(d.now()),
			Flags: format.FlagAllocated,
		}); err != nil {
			_, _ = d.chains.ReleaseBlocks(head)
			buf.PutU32LE(rb[format.RecordFlagsOffset:], uint32(format.FlagUnallocated))
			return -1, false, fmt.Errorf("overflow record %d: %w", id, err)
		}
		cur.MarkDirty()
		d.live.Add(1)
		return int32(id), true, nil
	}
	return -1, false, nil
}

// overflowBlock returns the block of overflow ordinal ord. With create set, a
// missing block is allocated, zeroed and published; otherwise 0 is returned.
func (d *Directory) overflowBlock(ord int, create bool) (int32, error) {
	off := d.layout.AddressSlot(ord)
	for {
		v := buf.LoadI32(d.meta, int(off))
		if v > 0 {
			return v, nil
		}
		if !create {
			return 0, nil
		}
		if v == format.SlotTerminal {
			// Another goroutine is creating this block.
			runtime.Gosched()
			continue
		}
		if !buf.CASI32(d.meta, int(off), format.SlotFree, format.SlotTerminal) {
			continue
		}

		blk, err := d.chains.AllocateBlocks(1)
		if err != nil {
			buf.StoreI32(d.meta, int(off), format.SlotFree)
			return 0, fmt.Errorf("create overflow block %d: %w", ord, err)
		}
		if err := d.pages.Zero(blk); err != nil {
			_, _ = d.chains.ReleaseBlocks(blk)
			buf.StoreI32(d.meta, int(off), format.SlotFree)
			return 0, fmt.Errorf("zero overflow block %d: %w", ord, err)
		}
		buf.StoreI32(d.meta, int(off), blk)
		d.markDirty(off, format.AddressSlotSize)
		logger.Debug("directory: overflow block created", "ordinal", ord, "block", blk)
		return blk, nil
	}
}

// Release frees the record of id and returns the head of its block chain.
// The caller returns the chain to the allocator.
func (d *Directory) Release(id int32) (int32, error) {
	loc, err := resolveSlot(d.layout, id)
	if err != nil {
		return 0, err
	}
	if loc.Kind == KindDirect {
		o := int(loc.Offset)
		flagsOff := o + format.RecordFlagsOffset
		if !buf.CASU32(d.meta, flagsOff, uint32(format.FlagAllocated), uint32(format.FlagPending)) {
			return 0, fmt.Errorf("release %d: %w", id, ErrNotAllocated)
		}
		head := buf.LoadI32(d.meta, o+format.RecordHeadOffset)
		buf.StoreI32(d.meta, o+format.RecordHeadOffset, 0)
		buf.StoreU32(d.meta, o+format.RecordSizeOffset, 0)
		buf.StoreU32(d.meta, o+format.RecordStampOffset, 0)
		buf.StoreU32(d.meta, flagsOff, uint32(format.FlagUnallocated))
		d.markDirty(loc.Offset, format.RecordSize)
		d.live.Add(-1)
		return head, nil
	}

	blk, err := d.overflowBlock(loc.Ordinal, false)
	if err != nil {
		return 0, err
	}
	if blk == 0 {
		return 0, fmt.Errorf("release %d: %w", id, ErrNotAllocated)
	}
	cur, err := d.pages.Acquire(blk, loc.Offset, format.RecordSize)
	if err != nil {
		return 0, fmt.Errorf("release %d: %w", id, err)
	}
	defer cur.Release()
	rec, err := format.DecodeRecord(cur.Bytes())
	if err != nil {
		return 0, fmt.Errorf("release %d: %w", id, err)
	}
	if rec.Flags != format.FlagAllocated {
		return 0, fmt.Errorf("release %d: %w", id, ErrNotAllocated)
	}
	if err := format.EncodeRecord(cur.Bytes(), format.Record{}); err != nil {
		return 0, fmt.Errorf("release %d: %w", id, err)
	}
	cur.MarkDirty()
	d.live.Add(-1)
	return rec.Head, nil
}

// Resolve returns the record of an allocated id.
func (d *Directory) Resolve(id int32) (format.Record, error) {
	loc, err := resolveSlot(d.layout, id)
	if err != nil {
		return format.Record{}, err
	}
	var rec format.Record
	if loc.Kind == KindDirect {
		rec = d.loadDirect(int(loc.Offset))
	} else {
		blk, err := d.overflowBlock(loc.Ordinal, false)
		if err != nil {
			return format.Record{}, err
		}
		if blk == 0 {
			return format.Record{}, fmt.Errorf("resolve %d: %w", id, ErrNotAllocated)
		}
		cur, err := d.pages.Acquire(blk, loc.Offset, format.RecordSize)
		if err != nil {
			return format.Record{}, fmt.Errorf("resolve %d: %w", id, err)
		}
		rec, err = format.DecodeRecord(cur.Bytes())
		cur.Release()
		if err != nil {
			return format.Record{}, fmt.Errorf("resolve %d: %w", id, err)
		}
	}
	if !rec.Live() {
		return format.Record{}, fmt.Errorf("resolve %d: %w", id, ErrNotAllocated)
	}
	return rec, nil
}

func (d *Directory) loadDirect(o int) format.Record {
	flags := format.Flags(buf.LoadU32(d.meta, o+format.RecordFlagsOffset))
	return format.Record{
		Head:  buf.LoadI32(d.meta, o+format.RecordHeadOffset),
		Size:  buf.LoadU32(d.meta, o+format.RecordSizeOffset),
		Stamp: buf.LoadU32(d.meta, o+format.RecordStampOffset),
		Flags: flags,
	}
}

// Each calls fn for every live record in id order until fn returns false.
func (d *Directory) Each(fn func(id int32, rec format.Record) bool) error {
	for slot := 0; slot < format.DirectCapacity; slot++ {
		rec := d.loadDirect(int(d.layout.DirectRecord(slot)))
		if rec.Live() && !fn(int32(slot), rec) {
			return nil
		}
	}

	per := d.layout.RecordsPerOverflowBlock()
	for ord := 0; ord < format.AddressCapacity; ord++ {
		blk, err := d.overflowBlock(ord, false)
		if err != nil {
			return err
		}
		if blk == 0 {
			continue
		}
		var live []int32
		var recs []format.Record
		cur, err := d.pages.Acquire(blk, 0, int(d.layout.BlockSize))
		if err != nil {
			return fmt.Errorf("overflow block %d: %w", blk, err)
		}
		b := cur.Bytes()
		for slot := 0; slot < per; slot++ {
			rec, err := format.DecodeRecord(b[slot*format.RecordSize:])
			if err != nil {
				cur.Release()
				return fmt.Errorf("overflow block %d slot %d: %w", blk, slot, err)
			}
			if rec.Live() {
				live = append(live, int32(overflowID(d.layout, ord, slot)))
				recs = append(recs, rec)
			}
		}
		cur.Release()

		// fn runs without the page lock so it may call back into the directory.
		for i, id := range live {
			if !fn(id, recs[i]) {
				return nil
			}
		}
	}
	return nil
}

// OverflowBlocks returns the block ids named by the overflow address table.
func (d *Directory) OverflowBlocks() []int32 {
	var out []int32
	for ord := 0; ord < format.AddressCapacity; ord++ {
		if v := buf.LoadI32(d.meta, int(d.layout.AddressSlot(ord))); v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// recover clears records and address slots left in a transitional state,
// counts live records, and frees blocks no live record or overflow block
// reaches.
func (d *Directory) recover() error {
	var pending int
	var heads, overflow []int32
	for slot := 0; slot < format.DirectCapacity; slot++ {
		off := d.layout.DirectRecord(slot)
		o := int(off)
		rec := d.loadDirect(o)
		switch {
		case rec.Live():
			d.live.Add(1)
			heads = append(heads, rec.Head)
		case rec.Flags != format.FlagUnallocated || rec.Head != 0:
			pending++
			buf.StoreI32(d.meta, o+format.RecordHeadOffset, 0)
			buf.StoreU32(d.meta, o+format.RecordSizeOffset, 0)
			buf.StoreU32(d.meta, o+format.RecordStampOffset, 0)
			buf.StoreU32(d.meta, o+format.RecordFlagsOffset, uint32(format.FlagUnallocated))
			d.markDirty(off, format.RecordSize)
		}
	}

	per := d.layout.RecordsPerOverflowBlock()
	for ord := 0; ord < format.AddressCapacity; ord++ {
		off := d.layout.AddressSlot(ord)
		v := buf.LoadI32(d.meta, int(off))
		if v == format.SlotFree {
			continue
		}
		if !d.layout.ValidBlock(v) {
			pending++
			buf.StoreI32(d.meta, int(off), format.SlotFree)
			d.markDirty(off, format.AddressSlotSize)
			continue
		}
		overflow = append(overflow, v)
		cur, err := d.pages.Acquire(v, 0, int(d.layout.BlockSize))
		if err != nil {
			return fmt.Errorf("directory: overflow block %d: %w", v, err)
		}
		b := cur.Bytes()
		for slot := 0; slot < per; slot++ {
			rb := b[slot*format.RecordSize : (slot+1)*format.RecordSize]
			rec, err := format.DecodeRecord(rb)
			if err != nil {
				cur.Release()
				return fmt.Errorf("directory: overflow block %d slot %d: %w", v, slot, err)
			}
			switch {
			case rec.Live():
				d.live.Add(1)
				heads = append(heads, rec.Head)
			case rec.Flags != format.FlagUnallocated || rec.Head != 0:
				pending++
				if err := format.EncodeRecord(rb, format.Record{}); err != nil {
					cur.Release()
					return fmt.Errorf("directory: overflow block %d slot %d: %w", v, slot, err)
				}
				cur.MarkDirty()
			}
		}
		cur.Release()
	}

	if pending > 0 {
		logger.Warn("directory: cleared interrupted records", "count", pending)
	}
	d.reclaim(heads, overflow)
	return nil
}

// reclaim frees claimed blocks outside every chain in heads and every block in
// overflow. A damaged chain leaves the indexer untouched so its blocks stay
// visible to verify.
func (d *Directory) reclaim(heads, overflow []int32) {
	reachable := make([]bool, d.layout.BlockCount)
	for _, b := range overflow {
		reachable[b] = true
	}
	for _, head := range heads {
		chain, err := d.chains.Chain(head)
		if err != nil {
			logger.Warn("directory: skipped block reclaim", "head", head, "error", err)
			return
		}
		for _, b := range chain {
			reachable[b] = true
		}
	}
	if n := d.chains.Reclaim(func(b int32) bool { return reachable[b] }); n > 0 {
		logger.Warn("directory: reclaimed unreachable blocks", "count", n)
	}
}

func (d *Directory) markDirty(off int64, n int) {
	if d.dt != nil {
		d.dt.Add(int(off), n)
	}
}
