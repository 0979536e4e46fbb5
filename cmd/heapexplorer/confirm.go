package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/bufheap/pkg/types"
)

// ConfirmModel asks before a buffer is released.
type ConfirmModel struct {
	info    types.BufferInfo
	visible bool
}

func (m ConfirmModel) Init() tea.Cmd { return nil }

func (m ConfirmModel) Update(tea.Msg) (tea.Model, tea.Cmd) { return m, nil }

func (m ConfirmModel) View() string {
	return dialogStyle.Render(fmt.Sprintf(
		"Release buffer %d (%s)?\n\nIts blocks return to the free pool.\n\n%s  %s",
		m.info.ID, formatBytes(m.info.Size),
		statValueStyle.Render("y")+" release",
		statValueStyle.Render("n")+" cancel",
	))
}

func (m *ConfirmModel) Show(info types.BufferInfo) {
	m.info = info
	m.visible = true
}

func (m *ConfirmModel) Hide() { m.visible = false }
