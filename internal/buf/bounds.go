package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe64 multiplies two non-negative int64 values, returning
// ok = false on overflow or when either operand is negative.
func MulOverflowSafe64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// CeilDiv returns ceil(n / d) for n >= 0 and d > 0.
func CeilDiv(n, d int64) int64 {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// CheckRange validates that [off, off+n) lies within a buffer of bufLen bytes.
func CheckRange(bufLen, off, n int) error {
	if off < 0 {
		return fmt.Errorf("negative offset: %d", off)
	}
	if n < 0 {
		return fmt.Errorf("negative length: %d", n)
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return fmt.Errorf("overflow: offset=%d + size=%d", off, n)
	}
	if end > bufLen {
		return fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if CheckRange(len(b), off, n) != nil {
		return nil, false
	}
	return b[off : off+n], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
