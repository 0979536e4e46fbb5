package pagecache

import (
	"fmt"
	"sync"

	"github.com/joshuapare/bufheap/internal/mmfile"
)

// Page is one resident mapped window of the data region.
type Page struct {
	c     *Cache
	index int64

	mu     *sync.Mutex // shared by every Page of this index
	m      *mmfile.Mapping
	dirty  bool
	closed bool
}

// Index returns the page index within the data region.
func (p *Page) Index() int64 { return p.index }

// FirstBlock returns the first block id covered by the page.
func (p *Page) FirstBlock() int32 { return int32(p.index * p.c.blocksPerPage) }

// Acquire locks the page and returns a cursor over count bytes of block,
// starting blockOffset bytes into the block. count is clamped to the block
// boundary. The page stays locked until the cursor is released.
func (p *Page) Acquire(block int32, blockOffset int64, count int) (*Cursor, error) {
	bs := p.c.blockSize
	if blockOffset < 0 || blockOffset >= bs {
		return nil, fmt.Errorf("offset %d in block of %d bytes: %w", blockOffset, bs, ErrOffset)
	}
	if int64(block)/p.c.blocksPerPage != p.index {
		return nil, fmt.Errorf("block %d on page %d: %w", block, p.index, ErrWrongPage)
	}
	if count < 0 {
		count = 0
	}
	if rest := bs - blockOffset; int64(count) > rest {
		count = int(rest)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errPageClosed
	}
	start := (int64(block)%p.c.blocksPerPage)*bs + blockOffset
	data := p.m.Bytes()
	if start+int64(count) > int64(len(data)) {
		p.mu.Unlock()
		return nil, fmt.Errorf("block %d beyond mapped page %d: %w", block, p.index, ErrBlock)
	}
	return &Cursor{p: p, data: data[start : start+int64(count) : start+int64(count)]}, nil
}

// flush msyncs the page if a cursor marked it dirty.
func (p *Page) flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.dirty {
		return nil
	}
	if err := p.m.Flush(); err != nil {
		return fmt.Errorf("flush page %d: %w", p.index, err)
	}
	p.dirty = false
	return nil
}

// close waits for any outstanding cursor, then unmaps the page. Dirty pages
// are synced first when sync is set.
func (p *Page) close(sync bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var err error
	if sync && p.dirty {
		err = p.m.Flush()
	}
	if uerr := p.m.Unmap(); err == nil {
		err = uerr
	}
	p.dirty = false
	return err
}

// Cursor is exclusive access to a byte range of one block on a locked page.
type Cursor struct {
	p        *Page
	data     []byte
	released bool
}

// Bytes returns the accessible range. It must not be used after Release.
func (c *Cursor) Bytes() []byte { return c.data }

// Len returns len(Bytes()).
func (c *Cursor) Len() int { return len(c.data) }

// MarkDirty records that the range was written, so Flush will sync the page.
func (c *Cursor) MarkDirty() {
	if !c.released {
		c.p.dirty = true
	}
}

// Release unlocks the page. Calling it more than once is a no-op.
func (c *Cursor) Release() {
	if c.released {
		return
	}
	c.released = true
	c.data = nil
	c.p.mu.Unlock()
}
