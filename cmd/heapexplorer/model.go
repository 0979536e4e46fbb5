package main

import (
	"io"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/bufheap/pkg/store"
	"github.com/joshuapare/bufheap/pkg/types"
)

// Source is the part of a store the explorer drives.
type Source interface {
	List() ([]types.BufferInfo, error)
	Stats() (store.Stats, error)
	Read(id types.ID, pos int64, dst io.Writer, count int64) (int64, error)
	Release(id types.ID) error
}

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// Model is the main bubbletea model
type Model struct {
	src  Source
	path string

	buffers []types.BufferInfo
	stats   store.Stats

	table   table.Model
	detail  DetailModel
	confirm ConfirmModel
	keys    KeyMap
	help    help.Model

	showHelp  bool
	status    string
	statusErr bool

	width  int
	height int
}

// NewModel creates the explorer for src. path is only displayed.
func NewModel(src Source, path string) Model {
	t := table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	return Model{
		src:    src,
		path:   path,
		table:  t,
		detail: NewDetailModel(),
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return loadBuffers(m.src)
}

// selected returns the buffer under the table cursor.
func (m Model) selected() (types.BufferInfo, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.buffers) {
		return types.BufferInfo{}, false
	}
	return m.buffers[i], true
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m *Model) copyText(text, what string) {
	if err := writeClipboard(text); err != nil {
		m.setStatus("Copy failed: "+err.Error(), true)
		return
	}
	m.setStatus("Copied "+what+" to clipboard", false)
}

// resize fits the table between the header and the status bar.
func (m *Model) resize() {
	const chrome = 2 + 2 + 3 // header, pane border, status + help
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	m.table.SetWidth(max(m.width-4, 0))
	m.table.SetColumns(columns(m.width - 4))
	m.help.Width = m.width
}
