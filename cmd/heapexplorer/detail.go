package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/bufheap/pkg/types"
)

// DetailModel shows a buffer's metadata and a hex dump of its head.
type DetailModel struct {
	info     types.BufferInfo
	data     []byte
	viewport viewport.Model
	width    int
	height   int
	visible  bool
}

// NewDetailModel creates a hidden detail view.
func NewDetailModel() DetailModel {
	return DetailModel{viewport: viewport.New(0, 0)}
}

// Init implements tea.Model
func (m DetailModel) Init() tea.Cmd {
	return nil
}

// Show displays data read from the buffer described by info.
func (m *DetailModel) Show(info types.BufferInfo, data []byte) {
	m.info = info
	m.data = data
	m.visible = true
	m.viewport.GotoTop()
	m.updateContent()
}

// Hide closes the detail view
func (m *DetailModel) Hide() {
	m.visible = false
	m.data = nil
}

// IsVisible returns whether the detail view is currently shown
func (m *DetailModel) IsVisible() bool {
	return m.visible
}

// Hex returns the hex dump of the loaded bytes.
func (m *DetailModel) Hex() string {
	return formatHexDump(m.data)
}

// Update handles messages
func (m *DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		// Modal takes 80% of screen; border + padding eat 6 columns, 4 rows
		m.viewport.Width = max(int(float64(m.width)*0.8)-6, 0)
		m.viewport.Height = max(int(float64(m.height)*0.8)-4, 0)
		m.updateContent()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DetailModel) updateContent() {
	if !m.visible {
		m.viewport.SetContent("")
		return
	}

	var b strings.Builder
	rule := strings.Repeat("─", max(m.viewport.Width-2, 0))

	b.WriteString(detailTitleStyle.Render(fmt.Sprintf("Buffer %d", m.info.ID)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Size:     %d bytes (%s)\n", m.info.Size, formatBytes(m.info.Size))
	fmt.Fprintf(&b, "Blocks:   %d\n", m.info.Blocks)
	fmt.Fprintf(&b, "Head:     %d\n", m.info.Head)
	fmt.Fprintf(&b, "Created:  %s\n", m.info.Created.Format("2006-01-02 15:04:05 UTC"))
	b.WriteString("\n")

	if int64(len(m.data)) < m.info.Size {
		fmt.Fprintf(&b, "Data (first %d of %d bytes):\n", len(m.data), m.info.Size)
	} else {
		b.WriteString("Data:\n")
	}
	b.WriteString(rule)
	b.WriteString("\n")
	b.WriteString(formatHexDump(m.data))

	m.viewport.SetContent(b.String())
}

// View renders the detail view as a bordered box; the overlay centers it.
func (m DetailModel) View() string {
	if !m.visible {
		return ""
	}
	return modalStyle.Render(m.viewport.View())
}
