//go:build !linux && !darwin && !freebsd

package mmfile

import (
	"fmt"
	"os"
)

const fallbackPageSize = 4096

// PageSize returns the alignment used for emulated mappings.
func PageSize() int { return fallbackPageSize }

// MapRange reads [off, off+length) into memory when mmap is not available.
// Stores reach the file on Sync, Flush, and Unmap.
func MapRange(f *os.File, off, length int64) (*Mapping, error) {
	if err := checkRange(f, off, length); err != nil {
		return nil, err
	}
	raw := make([]byte, length)
	if _, err := f.ReadAt(raw, off); err != nil {
		return nil, fmt.Errorf("mmfile: read [%d,%d): %w", off, off+length, err)
	}
	return &Mapping{f: f, raw: raw, data: raw, off: off}, nil
}

// Advise is a no-op without mmap.
func (m *Mapping) Advise() {}

// Unmap writes the range back and drops it. Calling it twice is a no-op.
func (m *Mapping) Unmap() error {
	if m.raw == nil {
		return nil
	}
	err := m.syncRaw(0, len(m.raw))
	m.raw, m.data = nil, nil
	return err
}

func (m *Mapping) syncRaw(start, end int) error {
	_, err := m.f.WriteAt(m.raw[start:end], m.off+int64(start))
	return err
}
