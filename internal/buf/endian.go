// Package buf contains endian-safe and atomic accessors over raw byte slices.
//
// The heap keeps all of its metadata in a shared memory mapping. Plain fields
// are read and written through the little-endian helpers; the words that take
// part in lock-free claims (indexer slots, record flags) go through the atomic
// helpers in atomic.go.
package buf

import "encoding/binary"

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// I32LE reads a little-endian int32 from b. Returns 0 when b is too short.
func I32LE(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// PutU32LE writes v at b[0:4]. It is a no-op when b is too short.
func PutU32LE(b []byte, v uint32) {
	if len(b) < 4 {
		return
	}
	binary.LittleEndian.PutUint32(b, v)
}

// PutI32LE writes v at b[0:4]. It is a no-op when b is too short.
func PutI32LE(b []byte, v int32) {
	PutU32LE(b, uint32(v))
}

// HostLittleEndian reports whether the running CPU stores integers
// little-endian. In-place atomics on mapped metadata rely on it.
func HostLittleEndian() bool {
	var word [2]byte
	binary.NativeEndian.PutUint16(word[:], 1)
	return word[0] == 1
}
