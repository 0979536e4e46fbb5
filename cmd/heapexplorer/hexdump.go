package main

import (
	"fmt"
	"strings"
)

// formatHexDump creates a hex dump with ASCII sidebar
func formatHexDump(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}

	var b strings.Builder
	const bytesPerLine = 16

	for offset := 0; offset < len(data); offset += bytesPerLine {
		fmt.Fprintf(&b, "%08x  ", offset)

		lineEnd := min(offset+bytesPerLine, len(data))
		for i := offset; i < lineEnd; i++ {
			fmt.Fprintf(&b, "%02x ", data[i])
			if i == offset+7 {
				b.WriteString(" ")
			}
		}

		// Padding for incomplete lines
		remaining := bytesPerLine - (lineEnd - offset)
		b.WriteString(strings.Repeat("   ", remaining))
		if remaining > 8 {
			b.WriteString(" ")
		}

		b.WriteString(" |")
		for i := offset; i < lineEnd; i++ {
			if data[i] >= 32 && data[i] <= 126 {
				b.WriteByte(data[i])
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|")

		if lineEnd < len(data) {
			b.WriteString("\n")
		}
	}

	return b.String()
}
