package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/bufheap/pkg/store"
	"github.com/joshuapare/bufheap/pkg/types"
)

func TestLoadsBuffers(t *testing.T) {
	h, _ := newTestHelper(t,
		[]byte("hello, heap"),
		bytes.Repeat([]byte{0xAB}, 3000),
		[]byte("third"),
	)

	model := h.GetModel()
	if len(model.buffers) != 3 {
		t.Fatalf("loaded %d buffers, want 3", len(model.buffers))
	}
	if got := len(model.table.Rows()); got != 3 {
		t.Errorf("table has %d rows, want 3", got)
	}
	if model.buffers[1].Blocks != 3 {
		t.Errorf("3000-byte buffer spans %d blocks, want 3", model.buffers[1].Blocks)
	}
	if model.stats.LiveBuffers != 3 {
		t.Errorf("stats report %d live buffers", model.stats.LiveBuffers)
	}

	view := h.GetView()
	for _, want := range []string{"Buffer Heap Explorer", "explorer.heap", "2.9 KiB"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestEmptyHeap(t *testing.T) {
	h, _ := newTestHelper(t)

	if !strings.Contains(h.GetView(), "No live buffers") {
		t.Error("empty heap should say so")
	}

	// Actions on an empty table are no-ops
	h.SendKey(tea.KeyEnter).SendKeyRune('d')
	model := h.GetModel()
	if model.detail.IsVisible() || model.confirm.visible {
		t.Error("nothing should open without a selected buffer")
	}
}

func TestDetailShowsHexDump(t *testing.T) {
	h, _ := newTestHelper(t, []byte("hello, heap"), []byte("second"))

	h.SendKey(tea.KeyEnter)
	model := h.GetModel()
	if !model.detail.IsVisible() {
		t.Fatal("enter should open the hex dump")
	}
	if model.detail.info.ID != 0 {
		t.Errorf("detail shows buffer %d, want 0", model.detail.info.ID)
	}
	hex := model.detail.Hex()
	if !strings.Contains(hex, "68 65 6c 6c 6f") || !strings.Contains(hex, "|hello, heap|") {
		t.Errorf("unexpected hex dump:\n%s", hex)
	}
	if !strings.Contains(h.GetView(), "Buffer 0") {
		t.Error("overlay should render the detail title")
	}

	h.SendKey(tea.KeyEsc)
	if h.GetModel().detail.IsVisible() {
		t.Error("esc should close the hex dump")
	}

	// Move to the second buffer
	h.SendKeyRune('j').SendKey(tea.KeyEnter)
	if got := h.GetModel().detail.info.ID; got != 1 {
		t.Errorf("detail shows buffer %d after moving down, want 1", got)
	}
}

// bigSource reports one buffer larger than the hex dump cap.
type bigSource struct {
	size      int64
	requested int64
}

func (b *bigSource) List() ([]types.BufferInfo, error) {
	return []types.BufferInfo{{ID: 7, Size: b.size, Blocks: 1}}, nil
}

func (b *bigSource) Stats() (store.Stats, error) { return store.Stats{LiveBuffers: 1}, nil }

func (b *bigSource) Read(_ types.ID, _ int64, dst io.Writer, count int64) (int64, error) {
	b.requested = count
	n, err := dst.Write(bytes.Repeat([]byte{'z'}, int(count)))
	return int64(n), err
}

func (b *bigSource) Release(types.ID) error { return nil }

func TestDetailCapsLargeBuffers(t *testing.T) {
	src := &bigSource{size: 10 << 20}
	h := &TestHelper{t: t, model: NewModel(src, "big.heap")}
	h.run(h.model.Init())
	h.SendWindowSize(120, 40)

	h.SendKey(tea.KeyEnter)
	if src.requested != maxDetailBytes {
		t.Errorf("read %d bytes, want the %d byte cap", src.requested, maxDetailBytes)
	}
	model := h.GetModel()
	if len(model.detail.data) != maxDetailBytes {
		t.Errorf("detail holds %d bytes", len(model.detail.data))
	}
	if !strings.Contains(model.detail.viewport.View(), "first 65536 of 10485760 bytes") {
		t.Error("detail should say the dump is partial")
	}
}

func TestReleaseConfirm(t *testing.T) {
	h, s := newTestHelper(t, []byte("a"), []byte("b"), []byte("c"))

	t.Log("Cancelling a release keeps the buffer")
	h.SendKeyRune('d')
	if !h.GetModel().confirm.visible {
		t.Fatal("d should ask for confirmation")
	}
	if !strings.Contains(h.GetView(), "Release buffer 0") {
		t.Error("dialog should name the buffer")
	}
	h.SendKeyRune('n')
	if h.GetModel().confirm.visible {
		t.Error("n should dismiss the dialog")
	}
	if len(h.GetModel().buffers) != 3 {
		t.Fatal("cancel must not release")
	}

	t.Log("Confirming releases it and reloads")
	h.SendKeyRune('j').SendKeyRune('d').SendKeyRune('y')
	if ids := h.ids(); len(ids) != 2 || ids[0] != 0 || ids[1] != 2 {
		t.Errorf("remaining ids = %v, want [0 2]", ids)
	}
	if _, err := s.Info(1); err == nil {
		t.Error("buffer 1 should be gone from the store")
	}
	model := h.GetModel()
	if model.statusErr || !strings.Contains(model.status, "Released buffer 1") {
		t.Errorf("status = %q", model.status)
	}
}

func TestReleaseFailureShowsError(t *testing.T) {
	h, s := newTestHelper(t, []byte("a"))

	// Released behind the explorer's back
	if err := s.Release(0); err != nil {
		t.Fatal(err)
	}
	h.SendKeyRune('d').SendKeyRune('y')

	model := h.GetModel()
	if !model.statusErr {
		t.Errorf("expected an error status, got %q", model.status)
	}
}

func TestCopy(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(text string) error {
		copied = text
		return nil
	}
	defer func() { writeClipboard = orig }()

	h, _ := newTestHelper(t, []byte("one"), []byte("two"))

	h.SendKeyRune('j').SendKeyRune('c')
	if copied != "1" {
		t.Errorf("copied %q, want buffer id 1", copied)
	}

	h.SendKey(tea.KeyEnter).SendKeyRune('c')
	if !strings.Contains(copied, "|two|") {
		t.Errorf("copy in detail view should take the hex dump, got %q", copied)
	}

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	h.SendKeyRune('c')
	model := h.GetModel()
	if !model.statusErr || !strings.Contains(model.status, "no clipboard") {
		t.Errorf("status = %q", model.status)
	}
}

func TestHelpToggle(t *testing.T) {
	h, _ := newTestHelper(t, []byte("a"))

	h.SendKeyRune('?')
	if !h.GetModel().showHelp {
		t.Fatal("? should show help")
	}
	if !strings.Contains(h.GetView(), "Keyboard Shortcuts") {
		t.Error("help overlay not rendered")
	}

	// Help swallows other keys
	h.SendKeyRune('d')
	if h.GetModel().confirm.visible {
		t.Error("keys must not reach the table while help is open")
	}

	h.SendKey(tea.KeyEsc)
	if h.GetModel().showHelp {
		t.Error("esc should dismiss help")
	}
}

func TestReload(t *testing.T) {
	h, s := newTestHelper(t, []byte("a"))

	if _, err := s.Allocate(10); err != nil {
		t.Fatal(err)
	}
	h.SendKeyRune('r')
	if got := len(h.GetModel().buffers); got != 2 {
		t.Errorf("after reload %d buffers, want 2", got)
	}
}

func TestQuit(t *testing.T) {
	h, _ := newTestHelper(t)
	h.SendKeyRune('q')
	if !h.quit {
		t.Error("q should quit")
	}

	h, _ = newTestHelper(t)
	h.SendKey(tea.KeyCtrlC)
	if !h.quit {
		t.Error("ctrl+c should quit")
	}
}

func TestFormatHexDump(t *testing.T) {
	if got := formatHexDump(nil); got != "(empty)" {
		t.Errorf("empty dump = %q", got)
	}

	data := []byte("0123456789abcdef\x00\x01ok")
	lines := strings.Split(formatHexDump(data), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "00000000  30 31 32") || !strings.HasSuffix(lines[0], "|0123456789abcdef|") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "00000010  00 01 6f 6b") || !strings.HasSuffix(lines[1], "|..ok|") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if len(lines[0]) != len(lines[1])+12 {
		t.Errorf("short line should be padded to the hex column: %d vs %d", len(lines[0]), len(lines[1]))
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		3000:    "2.9 KiB",
		1 << 20: "1.0 MiB",
	}
	for n, want := range cases {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
