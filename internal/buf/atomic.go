package buf

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// word returns a pointer to the 4-byte word at b[off]. It panics on an
// out-of-range or misaligned offset: both indicate a layout bug, not bad input.
func word(b []byte, off int) unsafe.Pointer {
	if off < 0 || off+4 > len(b) {
		panic(fmt.Sprintf("buf: word offset %d out of range (len %d)", off, len(b)))
	}
	p := unsafe.Pointer(&b[off])
	if uintptr(p)%4 != 0 {
		panic(fmt.Sprintf("buf: word offset %d is not 4-byte aligned", off))
	}
	return p
}

// LoadI32 atomically loads the int32 stored at b[off].
func LoadI32(b []byte, off int) int32 {
	return atomic.LoadInt32((*int32)(word(b, off)))
}

// StoreI32 atomically stores v at b[off].
func StoreI32(b []byte, off int, v int32) {
	atomic.StoreInt32((*int32)(word(b, off)), v)
}

// CASI32 atomically replaces old with new at b[off] and reports success.
func CASI32(b []byte, off int, old, new int32) bool {
	return atomic.CompareAndSwapInt32((*int32)(word(b, off)), old, new)
}

// SwapI32 atomically stores v at b[off] and returns the previous value.
func SwapI32(b []byte, off int, v int32) int32 {
	return atomic.SwapInt32((*int32)(word(b, off)), v)
}

// LoadU32 atomically loads the uint32 stored at b[off].
func LoadU32(b []byte, off int) uint32 {
	return atomic.LoadUint32((*uint32)(word(b, off)))
}

// StoreU32 atomically stores v at b[off].
func StoreU32(b []byte, off int, v uint32) {
	atomic.StoreUint32((*uint32)(word(b, off)), v)
}

// CASU32 atomically replaces old with new at b[off] and reports success.
func CASU32(b []byte, off int, old, new uint32) bool {
	return atomic.CompareAndSwapUint32((*uint32)(word(b, off)), old, new)
}
