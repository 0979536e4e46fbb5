package format

import "testing"

func TestAlign(t *testing.T) {
	if AlignDown(4097, 4096) != 4096 || AlignDown(4095, 4096) != 0 {
		t.Fatalf("AlignDown mismatch")
	}
	if AlignUp(1, 4096) != 4096 || AlignUp(4096, 4096) != 4096 || AlignUp(0, 4096) != 0 {
		t.Fatalf("AlignUp mismatch")
	}
}
