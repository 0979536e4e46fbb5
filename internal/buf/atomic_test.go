package buf

import (
	"sync"
	"testing"
	"unsafe"
)

// aligned returns an 8-byte aligned buffer backed by a []uint64.
func aligned(n int) []byte {
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)[:n]
}

func TestAtomicI32(t *testing.T) {
	b := aligned(16)

	StoreI32(b, 4, -1)
	if got := LoadI32(b, 4); got != -1 {
		t.Fatalf("LoadI32 = %d, want -1", got)
	}
	if I32LE(b[4:]) != -1 {
		t.Fatalf("atomic store not visible through I32LE on little-endian host")
	}
	if CASI32(b, 4, 0, 5) {
		t.Fatalf("CAS should fail when old value does not match")
	}
	if !CASI32(b, 4, -1, 5) {
		t.Fatalf("CAS should succeed")
	}
	if prev := SwapI32(b, 4, 0); prev != 5 {
		t.Fatalf("SwapI32 returned %d, want 5", prev)
	}
}

func TestAtomicU32Claim(t *testing.T) {
	b := aligned(8)
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if CASU32(b, 0, 0, 1) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("winners = %d, want 1", winners)
	}
	if LoadU32(b, 0) != 1 {
		t.Fatalf("flag not set")
	}
}

func TestAtomicMisalignedPanics(t *testing.T) {
	b := aligned(16)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on misaligned offset")
		}
	}()
	LoadI32(b, 1)
}

func TestAtomicOutOfRangePanics(t *testing.T) {
	b := aligned(8)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on out-of-range offset")
		}
	}()
	StoreU32(b, 8, 1)
}
