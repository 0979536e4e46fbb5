// Package pagecache keeps a bounded window of memory-mapped pages over the
// data region of a heap.
//
// A page covers pageSize bytes of the data region, i.e. pageSize/blockSize
// consecutive blocks. At most Window pages are resident. The resident list is
// insertion ordered: a hit does not reorder it, a miss inserts the new page at
// the front and evicts the page at the tail. Eviction waits for the victim's
// page lock, so a page is never unmapped while a Cursor over it is held.
//
// The page lock belongs to the page index, not to one mapping. A page that
// was evicted but not yet unmapped and the page that replaced it share the
// lock, so at most one Cursor covers an index at any time.
//
// Typical use:
//
//	c, err := pagecache.New(h, pagecache.Options{PageSize: 1 << 20, Window: 8})
//	cur, err := c.Acquire(block, 0, n)
//	copy(dst, cur.Bytes())
//	cur.Release()
package pagecache
