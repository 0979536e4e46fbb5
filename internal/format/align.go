package format

// AlignDown rounds n down to a multiple of align (align > 0).
//
// Example:
//
//	AlignDown(4097, 4096) = 4096
//	AlignDown(4095, 4096) = 0
func AlignDown(n, align int64) int64 {
	return n - n%align
}

// AlignUp rounds n up to a multiple of align (align > 0).
//
// Example:
//
//	AlignUp(1, 4096)    = 4096
//	AlignUp(4096, 4096) = 4096
func AlignUp(n, align int64) int64 {
	if r := n % align; r != 0 {
		return n + align - r
	}
	return n
}
