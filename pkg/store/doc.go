// Package store is the public entry point of bufheap: a fixed-capacity heap
// of variable-size byte buffers inside one memory-mapped file.
//
// # Overview
//
// A Store divides its data region into fixed-size blocks. Allocate reserves
// a chain of blocks for a buffer and returns an integer handle (types.ID).
// A View is a seekable io.Reader/io.Writer over the buffer's bytes.
//
//	s, err := store.Create("/var/cache/app.cache", store.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	id, err := s.Allocate(10_000)
//	v, err := s.Borrow(id)
//	v.Write(payload)
//
// # Ownership
//
// GetView returns an owning view: closing it releases the buffer. Borrow
// returns a view that leaves the buffer allocated. Read and Write are
// one-shot copies that borrow internally.
//
// # Durability
//
// The backing file holds both metadata and payload. Flush msyncs dirty pages
// and metadata and fsyncs the file; Open reattaches to a file and sees every
// buffer that was live when it was last flushed or closed. There is no
// journal: a crash between Flush calls may lose recent allocations.
//
// # Errors
//
// Errors carry a types.ErrKind. Use errors.Is with types.ErrCapacity,
// types.ErrNotFound, types.ErrSize, types.ErrLayout, types.ErrClosed or
// types.ErrRange.
//
// # Registry
//
// A Registry maps case-insensitive names to stores backed by
// "<name>#<n>.cache" files in one directory, for hosts that want several
// independent heaps.
package store
