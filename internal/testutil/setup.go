// Package testutil holds helpers shared by package tests.
package testutil

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/joshuapare/bufheap/heap"
	"github.com/joshuapare/bufheap/internal/format"
)

// NewHeap creates a heap of blockCount blocks of blockSize bytes in the
// test's temp dir. The heap is closed when the test ends.
//
// Example:
//
//	h := testutil.NewHeap(t, 4096, 11) // ten usable blocks
func NewHeap(t testing.TB, blockSize, blockCount int64) *heap.Heap {
	t.Helper()
	return NewHeapAt(t, filepath.Join(t.TempDir(), "test.cache"), blockSize, blockCount)
}

// NewHeapAt is NewHeap with an explicit file path.
func NewHeapAt(t testing.TB, path string, blockSize, blockCount int64) *heap.Heap {
	t.Helper()
	layout, err := format.NewLayout(blockSize, blockCount)
	if err != nil {
		t.Fatalf("layout %dx%d: %v", blockSize, blockCount, err)
	}
	h, err := heap.Create(path, layout)
	if err != nil {
		t.Fatalf("create heap: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// RandomBytes returns n deterministic pseudo-random bytes.
func RandomBytes(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}
