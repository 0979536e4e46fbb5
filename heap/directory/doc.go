// Package directory maps buffer ids to allocation records.
//
// Ids 0..format.DirectCapacity-1 address the direct record table in the
// metadata region. Higher ids address records stored inside overflow blocks:
// one-block chains named by the overflow address table, created on first use
// and never released.
//
// Direct records are claimed with a CAS on their flags word. Overflow records
// are claimed while holding the page lock of the overflow block, which
// serializes every access to that block.
package directory
