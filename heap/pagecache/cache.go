package pagecache

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/bufheap/heap"
	"github.com/joshuapare/bufheap/internal/format"
	"github.com/joshuapare/bufheap/internal/logger"
	"github.com/joshuapare/bufheap/internal/mmfile"
)

// Options configures a Cache. Zero fields take the defaults from format.
type Options struct {
	// PageSize is the mapped window size in bytes. Must be a multiple of the
	// heap's block size.
	PageSize int64

	// Window is the maximum number of resident pages.
	Window int

	// OnPageCreate, when set, is called with the page index every time a page
	// is mapped.
	OnPageCreate func(index int64)
}

// Stats are cumulative cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Creations uint64
	Evictions uint64
	Resident  int
}

// Cache is a bounded set of mapped pages. Safe for concurrent use.
type Cache struct {
	f             *os.File
	layout        format.Layout
	blockSize     int64
	pageSize      int64
	blocksPerPage int64
	window        int
	onCreate      func(int64)

	mu     sync.Mutex
	pages  []*Page // front is newest
	closed bool

	// locks holds one mutex per page index. Every Page mapped for an index
	// shares it, so an evicted page that is not yet closed still excludes
	// its replacement.
	locks map[int64]*sync.Mutex

	hits, misses, creations, evictions atomic.Uint64
}

// New creates a page cache over the data region of h.
func New(h *heap.Heap, opts Options) (*Cache, error) {
	layout := h.Layout()
	if opts.PageSize == 0 {
		opts.PageSize = format.DefaultPageSize
		if opts.PageSize < layout.BlockSize {
			opts.PageSize = layout.BlockSize
		}
		opts.PageSize -= opts.PageSize % layout.BlockSize
	}
	if opts.Window == 0 {
		opts.Window = format.DefaultPageWindow
	}
	if opts.PageSize < layout.BlockSize || opts.PageSize%layout.BlockSize != 0 {
		return nil, fmt.Errorf("page size %d, block size %d: %w", opts.PageSize, layout.BlockSize, ErrPageGeometry)
	}
	if opts.Window < 1 {
		return nil, fmt.Errorf("window %d: %w", opts.Window, ErrWindow)
	}
	return &Cache{
		f:             h.File(),
		layout:        layout,
		blockSize:     layout.BlockSize,
		pageSize:      opts.PageSize,
		blocksPerPage: opts.PageSize / layout.BlockSize,
		window:        opts.Window,
		onCreate:      opts.OnPageCreate,
		pages:         make([]*Page, 0, opts.Window),
		locks:         make(map[int64]*sync.Mutex),
	}, nil
}

// PageSize returns the page size in bytes.
func (c *Cache) PageSize() int64 { return c.pageSize }

// BlocksPerPage returns how many blocks one page covers.
func (c *Cache) BlocksPerPage() int64 { return c.blocksPerPage }

// PageIndex returns the index of the page holding block.
func (c *Cache) PageIndex(block int32) int64 { return int64(block) / c.blocksPerPage }

// GetPage returns the resident page holding block, mapping it and evicting
// the oldest page if needed.
func (c *Cache) GetPage(block int32) (*Page, error) {
	if block < 0 || int64(block) >= c.layout.BlockCount {
		return nil, fmt.Errorf("block %d of %d: %w", block, c.layout.BlockCount, ErrBlock)
	}
	idx := c.PageIndex(block)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if p := c.lookupLocked(idx); p != nil {
		c.mu.Unlock()
		c.hits.Add(1)
		return p, nil
	}
	c.mu.Unlock()
	c.misses.Add(1)

	m, err := c.mapPage(idx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = m.Unmap()
		return nil, ErrClosed
	}
	if p := c.lookupLocked(idx); p != nil {
		// Lost the race to another goroutine mapping the same page.
		c.mu.Unlock()
		_ = m.Unmap()
		return p, nil
	}
	fresh := &Page{c: c, index: idx, mu: c.lockLocked(idx), m: m}
	var victim *Page
	if len(c.pages) == c.window {
		victim = c.pages[len(c.pages)-1]
		c.pages = c.pages[:len(c.pages)-1]
	}
	c.pages = append(c.pages, nil)
	copy(c.pages[1:], c.pages)
	c.pages[0] = fresh
	c.mu.Unlock()

	c.creations.Add(1)
	if c.onCreate != nil {
		c.onCreate(idx)
	}
	if victim != nil {
		c.evictions.Add(1)
		logger.Debug("pagecache: evict", "page", victim.index, "for", idx)
		if err := victim.close(false); err != nil {
			logger.Warn("pagecache: unmap evicted page", "page", victim.index, "error", err)
		}
	}
	return fresh, nil
}

func (c *Cache) lockLocked(idx int64) *sync.Mutex {
	mu, ok := c.locks[idx]
	if !ok {
		mu = new(sync.Mutex)
		c.locks[idx] = mu
	}
	return mu
}

func (c *Cache) lookupLocked(idx int64) *Page {
	for _, p := range c.pages {
		if p.index == idx {
			return p
		}
	}
	return nil
}

func (c *Cache) mapPage(idx int64) (*mmfile.Mapping, error) {
	off := c.layout.DataOffset + idx*c.pageSize
	length := c.pageSize
	if end := off + length; end > c.layout.FileSize {
		length = c.layout.FileSize - off
	}
	if length <= 0 {
		return nil, fmt.Errorf("page %d starts past end of file: %w", idx, ErrBlock)
	}
	m, err := mmfile.MapRange(c.f, off, length)
	if err != nil {
		return nil, fmt.Errorf("map page %d: %w", idx, err)
	}
	m.Advise()
	return m, nil
}

// Acquire returns a locked cursor over count bytes of block starting at
// blockOffset. If the page is evicted between lookup and lock, the lookup is
// repeated.
func (c *Cache) Acquire(block int32, blockOffset int64, count int) (*Cursor, error) {
	for {
		p, err := c.GetPage(block)
		if err != nil {
			return nil, err
		}
		cur, err := p.Acquire(block, blockOffset, count)
		if errors.Is(err, errPageClosed) {
			continue
		}
		return cur, err
	}
}

// Zero clears a whole block.
func (c *Cache) Zero(block int32) error {
	cur, err := c.Acquire(block, 0, int(c.blockSize))
	if err != nil {
		return err
	}
	clear(cur.Bytes())
	cur.MarkDirty()
	cur.Release()
	return nil
}

// Resident returns the resident page indices, newest first.
func (c *Cache) Resident() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, len(c.pages))
	for i, p := range c.pages {
		out[i] = p.index
	}
	return out
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	resident := len(c.pages)
	c.mu.Unlock()
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Creations: c.creations.Load(),
		Evictions: c.evictions.Load(),
		Resident:  resident,
	}
}

func (c *Cache) snapshot() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Page(nil), c.pages...)
}

// Flush msyncs every resident page that was written since the last flush.
func (c *Cache) Flush() error {
	var errs []error
	for _, p := range c.snapshot() {
		if err := p.flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close syncs and unmaps every resident page. Further calls fail with
// ErrClosed.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	pages := c.pages
	c.pages = nil
	c.mu.Unlock()

	var errs []error
	for _, p := range pages {
		if err := p.close(true); err != nil {
			errs = append(errs, fmt.Errorf("close page %d: %w", p.index, err))
		}
	}
	return errors.Join(errs...)
}
