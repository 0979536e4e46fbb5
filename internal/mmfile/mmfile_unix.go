//go:build linux || darwin || freebsd

package mmfile

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// PageSize returns the OS page size, the alignment of mapping offsets.
func PageSize() int { return unix.Getpagesize() }

// MapRange maps [off, off+length) of f read/write and shared, so stores through
// Bytes reach the file.
func MapRange(f *os.File, off, length int64) (*Mapping, error) {
	if err := checkRange(f, off, length); err != nil {
		return nil, err
	}
	ps := int64(PageSize())
	base := off / ps * ps
	delta := off - base

	raw, err := unix.Mmap(
		int(f.Fd()),
		base,
		int(length+delta),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("mmfile: mmap [%d,%d): %w", off, off+length, err)
	}
	return &Mapping{
		f:     f,
		raw:   raw,
		data:  raw[delta : delta+length],
		off:   off,
		delta: delta,
	}, nil
}

// Advise hints the kernel that the mapping will be accessed randomly. Errors
// are ignored; the hint is optional.
func (m *Mapping) Advise() {
	if m.raw != nil {
		_ = unix.Madvise(m.raw, unix.MADV_RANDOM)
	}
}

// Unmap releases the mapping. Calling it twice is a no-op.
func (m *Mapping) Unmap() error {
	if m.raw == nil {
		return nil
	}
	err := unix.Munmap(m.raw)
	m.raw, m.data = nil, nil
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

func (m *Mapping) syncRaw(start, end int) error {
	if runtime.GOOS == "darwin" {
		// On macOS, msync() requires the address to match the original mmap() address.
		// The kernel only writes pages that are actually dirty.
		return unix.Msync(m.raw, unix.MS_SYNC)
	}
	return unix.Msync(m.raw[start:end], unix.MS_SYNC)
}
