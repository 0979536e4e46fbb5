package main

import (
	"bytes"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/bufheap/pkg/store"
	"github.com/joshuapare/bufheap/pkg/types"
)

// maxDetailBytes caps how much of a buffer the hex dump loads.
const maxDetailBytes = 64 << 10

type buffersLoadedMsg struct {
	Buffers []types.BufferInfo
	Stats   store.Stats
}

type detailLoadedMsg struct {
	Info types.BufferInfo
	Data []byte
}

type releasedMsg struct {
	ID types.ID
}

type errMsg struct {
	err error
}

func loadBuffers(src Source) tea.Cmd {
	return func() tea.Msg {
		bufs, err := src.List()
		if err != nil {
			return errMsg{err}
		}
		st, err := src.Stats()
		if err != nil {
			return errMsg{err}
		}
		return buffersLoadedMsg{Buffers: bufs, Stats: st}
	}
}

func loadDetail(src Source, info types.BufferInfo) tea.Cmd {
	return func() tea.Msg {
		n := min(info.Size, maxDetailBytes)
		var b bytes.Buffer
		b.Grow(int(n))
		if _, err := src.Read(info.ID, 0, &b, n); err != nil {
			return errMsg{err}
		}
		return detailLoadedMsg{Info: info, Data: b.Bytes()}
	}
}

func releaseBuffer(src Source, id types.ID) tea.Cmd {
	return func() tea.Msg {
		if err := src.Release(id); err != nil {
			return errMsg{err}
		}
		return releasedMsg{ID: id}
	}
}
