package format

import "errors"

var (
	// ErrSignatureMismatch indicates the header did not start with Magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrVersion indicates a header written by an unknown format version.
	ErrVersion = errors.New("format: unsupported version")
	// ErrGeometry indicates an invalid block size or block count.
	ErrGeometry = errors.New("format: invalid geometry")
	// ErrFileSize indicates the backing file length does not match its header.
	ErrFileSize = errors.New("format: file size does not match layout")
)
