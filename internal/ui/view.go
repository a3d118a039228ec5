package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danfragoso/termpod/internal/player"
)

const (
	volumeBarWidth = 20
	coverWidth     = 16
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.ctrl.Snapshot()

	header := m.renderTabs()
	footer := m.renderFooter()
	helpView := m.help.View(m.keys)

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - lipgloss.Height(helpView)
	if bodyHeight < 5 {
		bodyHeight = 5
	}

	leftWidth := m.width * 3 / 5
	rightWidth := m.width - leftWidth

	left := m.styles.panel.
		Width(leftWidth - 2).
		Height(bodyHeight - 2).
		Render(m.renderList(bodyHeight-2, leftWidth-4, snap))
	right := m.styles.panel.
		Width(rightWidth - 2).
		Height(bodyHeight - 2).
		Render(m.renderStatus(rightWidth-4, snap))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		footer,
		helpView,
	)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, viewCount)
	for v := ViewSongs; v < viewCount; v++ {
		label := v.String()
		if v == m.view && m.drill != "" {
			label += ": " + m.drill
		}
		if v == m.view {
			tabs = append(tabs, m.styles.activeTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderList draws the visible window of rows around the cursor.
func (m Model) renderList(height, width int, snap player.Snapshot) string {
	rows := m.rows()
	if len(rows) == 0 {
		return m.styles.dim.Render(m.emptyText())
	}

	offset := 0
	if m.cursor >= height {
		offset = m.cursor - height + 1
	}

	var current string
	if snap.Current >= 0 {
		current = snap.Tracks[snap.Current].Path
	}

	lines := make([]string, 0, height)
	for i := offset; i < len(rows) && i < offset+height; i++ {
		r := rows[i]
		prefix := "  "
		playing := r.kind == rowTrack && r.position >= 0 && r.position < len(snap.Tracks) &&
			snap.Tracks[r.position].Path == current && snap.Playing
		switch {
		case playing:
			prefix = "▶ "
		case r.kind == rowTrack && m.view != ViewQueue && m.ctrl.Queued(r.position):
			prefix = "+ "
		}

		text := prefix + r.label
		if r.detail != "" {
			text += " · " + r.detail
		}
		text = truncate(text, width)

		switch {
		case i == m.cursor:
			lines = append(lines, m.styles.selected.Render(text))
		case playing:
			lines = append(lines, m.styles.playing.Render(text))
		default:
			lines = append(lines, m.styles.item.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) emptyText() string {
	switch m.view {
	case ViewQueue:
		return "Queue is empty"
	case ViewSearch:
		if m.searchInput.Value() == "" {
			return "Type / to search"
		}
		return "No matches"
	case ViewDirectories:
		return "No directories. Use :add <dir>"
	default:
		return "No music found"
	}
}

func (m Model) renderStatus(width int, snap player.Snapshot) string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("Now Playing"))
	b.WriteString("\n")
	if snap.Current >= 0 {
		t := snap.Tracks[snap.Current]
		b.WriteString(truncate(t.Title, width) + "\n")
		b.WriteString(m.styles.dim.Render(truncate(t.Artist, width)) + "\n")
		b.WriteString(m.styles.dim.Render(truncate(t.Album, width)) + "\n")
		if art := m.art.Get(t.Path, min(width, coverWidth)); art != "" {
			b.WriteString("\n" + art + "\n")
		}
	} else {
		b.WriteString(m.styles.dim.Render("Nothing selected") + "\n\n\n")
	}

	state := "Stopped"
	if snap.Playing {
		state = "Playing"
	}
	b.WriteString("\n" + state + "\n")
	b.WriteString(volumeBar(snap.Volume) + "\n\n")

	b.WriteString(m.styles.title.Render(fmt.Sprintf("Up Next (%d)", len(snap.Queue))))
	b.WriteString("\n")
	for i, t := range snap.Queue {
		if i == 8 {
			b.WriteString(m.styles.dim.Render(fmt.Sprintf("… %d more", len(snap.Queue)-i)))
			break
		}
		b.WriteString(truncate(fmt.Sprintf("%d. %s", i+1, t.String()), width) + "\n")
	}

	b.WriteString("\n" + m.styles.dim.Render(fmt.Sprintf("%d tracks · %d directories", len(snap.Tracks), len(snap.Dirs))))
	return b.String()
}

func volumeBar(v float64) string {
	filled := int(v*volumeBarWidth + 0.5)
	return fmt.Sprintf("Vol [%s%s] %3d%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", volumeBarWidth-filled),
		int(v*100+0.5))
}

func (m Model) renderFooter() string {
	switch m.mode {
	case modeSearch:
		return m.searchInput.View()
	case modeCommand:
		return m.commandInput.View()
	}
	if m.message == "" {
		return ""
	}
	if m.isError {
		return m.styles.errorMsg.Render(m.message)
	}
	return m.styles.message.Render(m.message)
}

// truncate shortens s to width display cells.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
