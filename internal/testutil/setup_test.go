package testutil

import (
	"bytes"
	"testing"
)

func TestNewHeap(t *testing.T) {
	h := NewHeap(t, 512, 8)
	if got := h.Layout().UsableBlocks(); got != 7 {
		t.Fatalf("usable blocks = %d, want 7", got)
	}
}

func TestRandomBytesDeterministic(t *testing.T) {
	a, b := RandomBytes(64, 9), RandomBytes(64, 9)
	if !bytes.Equal(a, b) {
		t.Fatal("same seed produced different bytes")
	}
	if bytes.Equal(a, RandomBytes(64, 10)) {
		t.Fatal("different seeds produced the same bytes")
	}
}
