package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/joshuapare/bufheap/pkg/types"
)

// View renders the entire UI
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	// Overlays are rebuilt each render; stored pointers would go stale
	// since Update returns new models.
	switch {
	case m.confirm.visible:
		return overlay.New(m.confirm, NewMainViewModel(&m), overlay.Center, overlay.Center, 0, 0).View()
	case m.detail.IsVisible():
		return overlay.New(&m.detail, NewMainViewModel(&m), overlay.Center, overlay.Center, 0, 0).View()
	}

	return m.renderMain()
}

func (m Model) renderMain() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderStatus(),
	)
}

// renderHeader renders the title and the occupancy line.
func (m Model) renderHeader() string {
	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render("Buffer Heap Explorer"),
		"  ",
		pathStyle.Render(m.path),
	)

	st := m.stats
	stat := func(label, value string) string {
		return statLabelStyle.Render(label+" ") + statValueStyle.Render(value)
	}
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		stat("live", strconv.FormatInt(st.LiveBuffers, 10)),
		"   ",
		stat("free blocks", fmt.Sprintf("%d/%d", st.FreeBlocks, st.UsableBlocks)),
		"   ",
		stat("block", formatBytes(st.BlockSize)),
		"   ",
		stat("overflow", strconv.Itoa(st.OverflowBlocks)),
		"   ",
		stat("pages", fmt.Sprintf("%d resident, %d hit / %d miss", st.Pages.Resident, st.Pages.Hits, st.Pages.Misses)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, line)
}

func (m Model) renderContent() string {
	if len(m.buffers) == 0 {
		return paneStyle.Render(emptyStyle.Render("No live buffers"))
	}
	return paneStyle.Render(m.table.View())
}

func (m Model) renderStatus() string {
	status := ""
	if m.status != "" {
		if m.statusErr {
			status = statusErrStyle.Render(m.status)
		} else {
			status = statusOKStyle.Render(m.status)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, m.help.View(m.keys))
}

func (m Model) renderHelpOverlay() string {
	h := m.help
	h.ShowAll = true
	box := modalStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		helpTitleStyle.Render("Keyboard Shortcuts"),
		h.View(m.keys),
	))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// MainViewModel wraps the main UI for use as overlay background
type MainViewModel struct {
	model *Model
}

func NewMainViewModel(m *Model) *MainViewModel {
	return &MainViewModel{model: m}
}

func (m *MainViewModel) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the parent Model owns all state.
func (m *MainViewModel) Update(tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m *MainViewModel) View() string {
	return m.model.renderMain()
}

// columns sizes the buffer table for width; the Created column absorbs
// any extra space.
func columns(width int) []table.Column {
	cols := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Size", Width: 12},
		{Title: "Bytes", Width: 12},
		{Title: "Blocks", Width: 8},
		{Title: "Head", Width: 8},
		{Title: "Created", Width: 20},
	}
	used := 0
	for _, c := range cols {
		used += c.Width + 2 // cell padding
	}
	if extra := width - used; extra > 0 {
		cols[len(cols)-1].Width += extra
	}
	return cols
}

func rows(infos []types.BufferInfo) []table.Row {
	out := make([]table.Row, len(infos))
	for i, b := range infos {
		out[i] = table.Row{
			strconv.Itoa(int(b.ID)),
			formatBytes(b.Size),
			strconv.FormatInt(b.Size, 10),
			strconv.Itoa(b.Blocks),
			strconv.Itoa(int(b.Head)),
			b.Created.Format("2006-01-02 15:04:05"),
		}
	}
	return out
}

// formatBytes formats byte counts in human-readable form
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
