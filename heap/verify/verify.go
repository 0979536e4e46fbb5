// Package verify checks the structural consistency of a heap: every live
// record owns a chain of the right length, no block is owned twice, and every
// claimed block is reachable from a record or the overflow address table.
package verify

import (
	"fmt"
	"time"

	"github.com/joshuapare/bufheap/heap/alloc"
	"github.com/joshuapare/bufheap/heap/directory"
	"github.com/joshuapare/bufheap/internal/format"
	"github.com/joshuapare/bufheap/pkg/types"
)

// Report is the result of Check.
type Report struct {
	LiveRecords    int     `json:"live_records"`
	ChainBlocks    int64   `json:"chain_blocks"`
	OverflowBlocks int     `json:"overflow_blocks"`
	FreeBlocks     int64   `json:"free_blocks"`
	LeakedBlocks   []int32 `json:"leaked_blocks,omitempty"`

	Diagnostics *types.DiagnosticReport `json:"diagnostics"`
}

// OK reports whether the heap is consistent.
func (r *Report) OK() bool {
	return !r.Diagnostics.HasAnyIssues()
}

// owner ids for blocks that belong to the directory itself.
const overflowOwner = int64(-1)

type checker struct {
	r      *Report
	layout format.Layout
	chains *alloc.Chains
	owners map[int32]int64
}

// Check walks the directory and the indexer. It reads without locking the
// indexer, so it should run while no allocation or release is in flight.
func Check(dir *directory.Directory, chains *alloc.Chains) (*Report, error) {
	start := time.Now()
	layout := chains.Layout()
	c := &checker{
		r:      &Report{Diagnostics: types.NewDiagnosticReport()},
		layout: layout,
		chains: chains,
		owners: make(map[int32]int64),
	}
	r := c.r

	for _, b := range dir.OverflowBlocks() {
		r.OverflowBlocks++
		if s := chains.Slot(b); s != format.SlotTerminal {
			c.add(types.SevError, types.DiagStructure, "overflow", layout.IndexerSlot(b), int64(b),
				fmt.Sprintf("overflow block %d is not a one-block chain", b), format.SlotTerminal, s)
		}
		c.claim(b, overflowOwner)
	}

	err := dir.Each(func(id int32, rec format.Record) bool {
		r.LiveRecords++
		chain, err := chains.Chain(rec.Head)
		if err != nil {
			c.add(types.SevError, types.DiagStructure, "chain", layout.IndexerSlot(rec.Head), int64(id),
				fmt.Sprintf("id %d: %v", id, err), nil, nil)
		} else if want := chains.BlocksFor(int64(rec.Size)); int64(len(chain)) != want {
			c.add(types.SevError, types.DiagStructure, "record", c.recordOffset(id), int64(id),
				fmt.Sprintf("id %d: chain has %d blocks for size %d", id, len(chain), rec.Size), want, len(chain))
		}
		for _, b := range chain {
			c.claim(b, int64(id))
		}
		r.ChainBlocks += int64(len(chain))
		return true
	})
	if err != nil {
		return nil, err
	}

	for b := int32(1); int64(b) < chains.BlockCount(); b++ {
		if chains.Slot(b) == format.SlotFree {
			r.FreeBlocks++
			if owner, ok := c.owners[b]; ok {
				c.add(types.SevError, types.DiagIntegrity, "indexer", layout.IndexerSlot(b), int64(b),
					fmt.Sprintf("block %d is free but referenced by %s", b, ownerName(owner)), nil, nil)
			}
			continue
		}
		if _, ok := c.owners[b]; !ok {
			r.LeakedBlocks = append(r.LeakedBlocks, b)
			c.add(types.SevWarning, types.DiagSpace, "indexer", layout.IndexerSlot(b), int64(b),
				fmt.Sprintf("block %d is claimed but unreachable", b), nil, nil)
		}
	}
	if s := chains.Slot(format.ReservedBlock); s != format.SlotFree {
		c.add(types.SevError, types.DiagStructure, "indexer", layout.IndexerSlot(format.ReservedBlock), 0,
			"reserved block 0 is claimed", format.SlotFree, s)
	}

	r.Diagnostics.ScanTime = time.Since(start)
	r.Diagnostics.Finalize()
	return r, nil
}

func (c *checker) claim(b int32, owner int64) {
	if prev, dup := c.owners[b]; dup {
		c.add(types.SevCritical, types.DiagIntegrity, "chain", c.layout.IndexerSlot(b), int64(b),
			fmt.Sprintf("block %d owned by %s and %s", b, ownerName(prev), ownerName(owner)), nil, nil)
		return
	}
	c.owners[b] = owner
}

func (c *checker) add(sev types.Severity, cat types.DiagCategory, structure string, off, ref int64, issue string, expected, actual any) {
	c.r.Diagnostics.Add(types.Diagnostic{
		Severity:  sev,
		Category:  cat,
		Offset:    off,
		Structure: structure,
		Ref:       ref,
		Issue:     issue,
		Expected:  expected,
		Actual:    actual,
	})
}

// recordOffset is the file offset of a direct record, or -1 for overflow
// records whose offset depends on their block.
func (c *checker) recordOffset(id int32) int64 {
	if id < format.DirectCapacity {
		return c.layout.DirectRecord(int(id))
	}
	return -1
}

func ownerName(owner int64) string {
	if owner == overflowOwner {
		return "overflow table"
	}
	return fmt.Sprintf("id %d", owner)
}
