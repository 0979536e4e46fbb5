package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/joshuapare/bufheap/heap"
	"github.com/joshuapare/bufheap/heap/alloc"
	"github.com/joshuapare/bufheap/heap/directory"
	"github.com/joshuapare/bufheap/heap/dirty"
	"github.com/joshuapare/bufheap/heap/pagecache"
	"github.com/joshuapare/bufheap/heap/verify"
	"github.com/joshuapare/bufheap/heap/view"
	"github.com/joshuapare/bufheap/internal/format"
	"github.com/joshuapare/bufheap/internal/logger"
	"github.com/joshuapare/bufheap/pkg/types"
)

// Buffers is the buffer contract a Store satisfies. Hosts that only need
// handles and cursors should depend on it rather than on *Store.
type Buffers interface {
	Allocate(size int64) (types.ID, error)
	Release(id types.ID) error
	GetView(id types.ID) (*view.View, error)
	Read(id types.ID, pos int64, dst io.Writer, count int64) (int64, error)
	Write(id types.ID, pos int64, src io.Reader, count int64) (int64, error)
}

var _ Buffers = (*Store)(nil)

// Stats is a point-in-time summary of a store.
type Stats struct {
	LiveBuffers    int64
	BlockSize      int64
	UsableBlocks   int64
	FreeBlocks     int64
	OverflowBlocks int
	DirtyRanges    int
	Pages          pagecache.Stats
}

// Store is a block-structured buffer heap backed by one file. All methods
// are safe for concurrent use. A View must not be used concurrently with, or
// after, the release of its id.
type Store struct {
	// mu is held shared by every operation and exclusively by Close, so the
	// metadata mapping is never unmapped under a reader.
	mu     sync.RWMutex
	closed bool

	h      *heap.Heap
	dt     *dirty.Tracker
	chains *alloc.Chains
	pages  *pagecache.Cache
	dir    *directory.Directory

	maxAlloc int64
	bufs     sync.Pool
}

// Create creates (or truncates) the backing file at path and returns an
// empty store.
func Create(path string, opts Options) (*Store, error) {
	opts = opts.withDefaults()
	layout, err := format.LayoutForCapacity(opts.BlockSize, opts.Capacity)
	if err != nil {
		return nil, classify("create store", err)
	}
	h, err := heap.Create(path, layout)
	if err != nil {
		return nil, classify("create store", err)
	}
	s, err := attach(h, opts)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	logger.Info("store: created", "path", path, "blockSize", layout.BlockSize, "blocks", layout.BlockCount)
	return s, nil
}

// Open attaches to an existing backing file. Geometry comes from the file
// header; allocations made before the file was closed are still live.
func Open(path string, opts Options) (*Store, error) {
	opts = opts.withDefaults()
	h, err := heap.Open(path)
	if err != nil {
		return nil, classify("open store", err)
	}
	s, err := attach(h, opts)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	logger.Info("store: opened", "path", path, "live", s.dir.Live())
	return s, nil
}

func attach(h *heap.Heap, opts Options) (*Store, error) {
	layout := h.Layout()
	dt := dirty.NewTracker(h)
	chains, err := alloc.New(h, dt)
	if err != nil {
		return nil, classify("attach allocator", err)
	}
	pages, err := pagecache.New(h, pagecache.Options{
		PageSize:     opts.pageSizeFor(layout.BlockSize),
		Window:       opts.PageWindow,
		OnPageCreate: opts.OnPageCreate,
	})
	if err != nil {
		return nil, classify("attach page cache", err)
	}
	dir, err := directory.New(h, chains, pages, dt)
	if err != nil {
		_ = pages.Close()
		return nil, classify("attach directory", err)
	}

	maxAlloc := layout.UsableBlocks() * layout.BlockSize
	if maxAlloc > directory.MaxSize {
		maxAlloc = directory.MaxSize
	}
	if opts.MaxAllocation > 0 && opts.MaxAllocation < maxAlloc {
		maxAlloc = opts.MaxAllocation
	}

	s := &Store{
		h:        h,
		dt:       dt,
		chains:   chains,
		pages:    pages,
		dir:      dir,
		maxAlloc: maxAlloc,
	}
	bs := int(layout.BlockSize)
	s.bufs.New = func() any {
		b := make([]byte, bs)
		return &b
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.h.Path() }

// BlockSize returns the allocation granularity in bytes.
func (s *Store) BlockSize() int64 { return s.h.Layout().BlockSize }

// BlockCount returns the number of blocks including the reserved block 0.
func (s *Store) BlockCount() int64 { return s.h.Layout().BlockCount }

// MaxAllocation returns the largest size Allocate accepts.
func (s *Store) MaxAllocation() int64 { return s.maxAlloc }

// Allocate reserves a buffer of size bytes. On failure the id is
// types.InvalidID and the error is of kind Size or Capacity.
func (s *Store) Allocate(size int64) (types.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.InvalidID, types.ErrClosed
	}
	if size <= 0 || size > s.maxAlloc {
		return types.InvalidID, types.Wrap(types.ErrKindSize,
			fmt.Sprintf("allocate %d bytes (max %d)", size, s.maxAlloc), nil)
	}
	id, err := s.dir.Allocate(size)
	if err != nil {
		err = classify(fmt.Sprintf("allocate %d bytes", size), err)
		if errors.Is(err, types.ErrCapacity) {
			logger.Warn("store: capacity exhausted", "path", s.h.Path(), "size", size, "live", s.dir.Live())
		}
		return types.InvalidID, err
	}
	return types.ID(id), nil
}

// Release frees id and its blocks. An unknown or already released id
// reports ErrNotFound.
func (s *Store) Release(id types.ID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.ErrClosed
	}
	return s.releaseLocked(id)
}

func (s *Store) releaseLocked(id types.ID) error {
	head, err := s.dir.Release(int32(id))
	if err != nil {
		return classify(fmt.Sprintf("release %d", id), err)
	}
	if _, err := s.chains.ReleaseBlocks(head); err != nil {
		return classify(fmt.Sprintf("release %d: blocks", id), err)
	}
	return nil
}

// GetView returns an owning view of id: closing it releases the buffer.
func (s *Store) GetView(id types.ID) (*view.View, error) {
	return s.open(id, true)
}

// Borrow returns a view of id whose Close leaves the buffer allocated.
func (s *Store) Borrow(id types.ID) (*view.View, error) {
	return s.open(id, false)
}

func (s *Store) open(id types.ID, owning bool) (*view.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrClosed
	}
	rec, err := s.dir.Resolve(int32(id))
	if err != nil {
		return nil, classify(fmt.Sprintf("view %d", id), err)
	}
	var onClose func(int32) error
	if owning {
		onClose = func(id int32) error { return s.Release(types.ID(id)) }
	}
	b := backend{s}
	return view.New(int32(id), rec, s.h.Layout().BlockSize, b, b, onClose), nil
}

// Info describes a live buffer.
func (s *Store) Info(id types.ID) (types.BufferInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.BufferInfo{}, types.ErrClosed
	}
	rec, err := s.dir.Resolve(int32(id))
	if err != nil {
		return types.BufferInfo{}, classify(fmt.Sprintf("info %d", id), err)
	}
	return s.info(int32(id), rec), nil
}

// List returns every live buffer in id order.
func (s *Store) List() ([]types.BufferInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrClosed
	}
	var out []types.BufferInfo
	err := s.dir.Each(func(id int32, rec format.Record) bool {
		out = append(out, s.info(id, rec))
		return true
	})
	if err != nil {
		return nil, classify("list buffers", err)
	}
	return out, nil
}

func (s *Store) info(id int32, rec format.Record) types.BufferInfo {
	return types.BufferInfo{
		ID:      types.ID(id),
		Size:    int64(rec.Size),
		Head:    rec.Head,
		Blocks:  int(s.chains.BlocksFor(int64(rec.Size))),
		Created: format.StampToTime(rec.Stamp),
	}
}

// Read copies up to count bytes of id starting at pos into dst, one block at
// a time. Fewer bytes are copied only when the buffer ends first.
func (s *Store) Read(id types.ID, pos int64, dst io.Writer, count int64) (int64, error) {
	v, err := s.Borrow(id)
	if err != nil {
		return 0, err
	}
	defer v.Close()
	if _, err := v.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}

	bp := s.bufs.Get().(*[]byte)
	defer s.bufs.Put(bp)
	return io.CopyBuffer(onlyWriter{dst}, io.LimitReader(v, count), *bp)
}

// Write copies count bytes from src into id starting at pos, one block at a
// time. Writing past the end of the buffer fails with io.ErrShortWrite.
func (s *Store) Write(id types.ID, pos int64, src io.Reader, count int64) (int64, error) {
	v, err := s.Borrow(id)
	if err != nil {
		return 0, err
	}
	defer v.Close()
	if _, err := v.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}

	bp := s.bufs.Get().(*[]byte)
	defer s.bufs.Put(bp)
	n, err := io.CopyBuffer(v, onlyReader{io.LimitReader(src, count)}, *bp)
	if err == nil && n < count {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// onlyWriter and onlyReader hide ReaderFrom/WriterTo so io.CopyBuffer uses
// the block-sized pooled buffer.
type onlyWriter struct{ io.Writer }
type onlyReader struct{ io.Reader }

// Stats returns current counters.
func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, types.ErrClosed
	}
	layout := s.h.Layout()
	return Stats{
		LiveBuffers:    s.dir.Live(),
		BlockSize:      layout.BlockSize,
		UsableBlocks:   layout.UsableBlocks(),
		FreeBlocks:     s.chains.FreeCount(),
		OverflowBlocks: len(s.dir.OverflowBlocks()),
		DirtyRanges:    len(s.dt.Pending()),
		Pages:          s.pages.Stats(),
	}, nil
}

// Verify checks the heap structure. It should run while no allocation or
// release is in flight.
func (s *Store) Verify() (*verify.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrClosed
	}
	r, err := verify.Check(s.dir, s.chains)
	if err != nil {
		return nil, classify("verify", err)
	}
	return r, nil
}

// Flush makes every write so far durable: dirty pages and metadata ranges are
// msynced, then the file is fsynced.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.ErrClosed
	}
	if err := s.pages.Flush(); err != nil {
		return classify("flush pages", err)
	}
	if err := s.dt.Flush(ctx, dirty.FlushAuto); err != nil {
		return classify("flush metadata", err)
	}
	return nil
}

// Close flushes and unmaps the store and closes the backing file. Views
// obtained from the store fail with ErrClosed afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.pages.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.dt.Flush(context.Background(), dirty.FlushAuto); err != nil {
		errs = append(errs, err)
	}
	if err := s.h.Close(); err != nil {
		errs = append(errs, err)
	}
	// Unflushed ranges point into the mapping that was just released
	s.dt.Reset()
	if err := errors.Join(errs...); err != nil {
		return classify("close store", err)
	}
	logger.Debug("store: closed", "path", s.h.Path())
	return nil
}

// backend gives views chain and page access that fails cleanly once the
// store is closed.
type backend struct{ s *Store }

func (b backend) Walk(head int32, steps int64) (int32, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	if b.s.closed {
		return 0, types.ErrClosed
	}
	return b.s.chains.Walk(head, steps)
}

func (b backend) Next(block int32) int32 {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	if b.s.closed {
		return 0
	}
	return b.s.chains.Next(block)
}

func (b backend) Acquire(block int32, off int64, count int) (*pagecache.Cursor, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	if b.s.closed {
		return nil, types.ErrClosed
	}
	return b.s.pages.Acquire(block, off, count)
}
