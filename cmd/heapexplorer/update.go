package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/bufheap/internal/logger"
)

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.detail.Update(msg)
		return m, nil

	case buffersLoadedMsg:
		m.buffers = msg.Buffers
		m.stats = msg.Stats
		m.table.SetRows(rows(msg.Buffers))
		if m.table.Cursor() >= len(msg.Buffers) {
			m.table.SetCursor(max(len(msg.Buffers)-1, 0))
		}
		logger.Debug("buffers loaded", "count", len(msg.Buffers))
		return m, nil

	case detailLoadedMsg:
		m.detail.Show(msg.Info, msg.Data)
		return m, nil

	case releasedMsg:
		logger.Info("released buffer", "id", msg.ID)
		m.setStatus(fmt.Sprintf("Released buffer %d", msg.ID), false)
		return m, loadBuffers(m.src)

	case errMsg:
		logger.Warn("explorer operation failed", "error", msg.err)
		m.setStatus(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleKey routes a key to whichever layer is on top: help, the release
// dialog, the hex dump or the table.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Esc, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.confirm.visible {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			id := m.confirm.info.ID
			m.confirm.Hide()
			return m, releaseBuffer(m.src, id)
		case key.Matches(msg, m.keys.Cancel, m.keys.Esc):
			m.confirm.Hide()
		}
		return m, nil
	}

	if m.detail.IsVisible() {
		switch {
		case key.Matches(msg, m.keys.Esc, m.keys.Enter):
			m.detail.Hide()
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			m.copyText(m.detail.Hex(), "hex dump")
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		_, cmd := m.detail.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Refresh):
		m.setStatus("Reloaded", false)
		return m, loadBuffers(m.src)
	case key.Matches(msg, m.keys.Enter):
		if info, ok := m.selected(); ok {
			return m, loadDetail(m.src, info)
		}
	case key.Matches(msg, m.keys.Release):
		if info, ok := m.selected(); ok {
			m.confirm.Show(info)
		}
	case key.Matches(msg, m.keys.Copy):
		if info, ok := m.selected(); ok {
			m.copyText(strconv.Itoa(int(info.ID)), "buffer id")
		}
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}
