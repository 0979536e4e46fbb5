package main

import (
	"bytes"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/bufheap/pkg/store"
	"github.com/joshuapare/bufheap/pkg/types"
)

// TestHelper drives a Model the way the bubbletea runtime would, executing
// returned commands synchronously.
type TestHelper struct {
	t     *testing.T
	model Model
	quit  bool
}

// newTestHelper creates a heap holding one buffer per payload and loads it
// into a fresh explorer.
func newTestHelper(t *testing.T, payloads ...[]byte) (*TestHelper, *store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "explorer.heap")
	s, err := store.Create(path, store.Options{BlockSize: 1024, Capacity: 64 << 10, PageSize: 4096})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	for _, p := range payloads {
		id, err := s.Allocate(int64(len(p)))
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		if _, err := s.Write(id, 0, bytes.NewReader(p), int64(len(p))); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	h := &TestHelper{t: t, model: NewModel(s, path)}
	h.run(h.model.Init())
	h.SendWindowSize(120, 40)
	return h, s
}

// run feeds cmd's message back into the model until no command remains.
func (h *TestHelper) run(cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		if _, ok := msg.(tea.QuitMsg); ok {
			h.quit = true
			return
		}
		var updated tea.Model
		updated, cmd = h.model.Update(msg)
		h.model = updated.(Model)
	}
}

func (h *TestHelper) send(msg tea.Msg) *TestHelper {
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	h.run(cmd)
	return h
}

// SendKey simulates a key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	return h.send(tea.KeyMsg{Type: keyType})
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	return h.send(tea.WindowSizeMsg{Width: width, Height: height})
}

func (h *TestHelper) GetModel() Model { return h.model }

func (h *TestHelper) GetView() string { return h.model.View() }

func (h *TestHelper) ids() []types.ID {
	out := make([]types.ID, len(h.model.buffers))
	for i, b := range h.model.buffers {
		out[i] = b.ID
	}
	return out
}
