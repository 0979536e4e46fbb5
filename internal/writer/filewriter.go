// Package writer exposes sinks for exported buffer contents.
package writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrFinished is returned when writing to a FileWriter after Commit or Abort.
var ErrFinished = errors.New("writer: file already finished")

// FileWriter streams bytes into a temp file beside Path and moves it into
// place on Commit. Path is never observed partially written.
type FileWriter struct {
	Path string

	tmp *os.File
	n   int64
}

// Create opens a temp file in the directory of path.
func Create(path string) (*FileWriter, error) {
	// Same directory so the rename stays on one filesystem
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bufheap-tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &FileWriter{Path: path, tmp: tmp}, nil
}

// Write implements io.Writer.
func (w *FileWriter) Write(p []byte) (int, error) {
	if w.tmp == nil {
		return 0, ErrFinished
	}
	n, err := w.tmp.Write(p)
	w.n += int64(n)
	return n, err
}

// Written reports the bytes accepted so far.
func (w *FileWriter) Written() int64 { return w.n }

// Commit syncs the temp file and renames it over Path.
func (w *FileWriter) Commit() error {
	if w.tmp == nil {
		return ErrFinished
	}
	tmp := w.tmp
	w.tmp = nil
	tmpPath := tmp.Name()

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, w.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Abort discards the temp file. It is a no-op after Commit, so it can be
// deferred unconditionally.
func (w *FileWriter) Abort() {
	if w.tmp == nil {
		return
	}
	tmpPath := w.tmp.Name()
	_ = w.tmp.Close()
	_ = os.Remove(tmpPath)
	w.tmp = nil
}
