package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestMulOverflowSafe64(t *testing.T) {
	if got, ok := MulOverflowSafe64(65536, 32768); !ok || got != 1<<31 {
		t.Fatalf("MulOverflowSafe64 = %d,%v want %d,true", got, ok, int64(1)<<31)
	}
	if _, ok := MulOverflowSafe64(math.MaxInt64, 2); ok {
		t.Fatalf("expected overflow")
	}
	if _, ok := MulOverflowSafe64(-1, 2); ok {
		t.Fatalf("expected rejection of negative operand")
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ n, d, want int64 }{
		{0, 4096, 0},
		{1, 4096, 1},
		{4096, 4096, 1},
		{4097, 4096, 2},
		{10000, 4096, 3},
	}
	for _, c := range cases {
		if got := CeilDiv(c.n, c.d); got != c.want {
			t.Fatalf("CeilDiv(%d,%d) = %d, want %d", c.n, c.d, got, c.want)
		}
	}
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}
	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}
}
