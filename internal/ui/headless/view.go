package headless

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	badgeWatching = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	badgeIdle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")).Background(lipgloss.Color("236")).Padding(0, 1)
	badgeStopping = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	badgeError    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("9")).Padding(0, 1)
)

func (m *headlessModel) View() string {
	width := m.width
	if width <= 0 {
		width = 100
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("VRC Snap Archive Launcher"),
		"  ",
		labelStyle.Render(m.buildVersion),
		"  ",
		m.statusBadge(),
	)

	world := m.worldName
	if m.worldID != "" {
		world += "  " + labelStyle.Render("("+m.worldID+")")
	}
	lastFile := "-"
	if m.lastFile != "" {
		lastFile = filepath.Base(m.lastFile)
	}

	info := panelStyle.Width(width - 2).Render(strings.Join([]string{
		labelStyle.Render("World     ") + valueStyle.Render(world),
		labelStyle.Render("Last file ") + valueStyle.Render(lastFile),
		labelStyle.Render("Counters  ") + valueStyle.Render(fmt.Sprintf(
			"detected %d · archived %d · errors %d",
			m.counters.Detected, m.counters.Processed, m.counters.Errors)),
	}, "\n"))

	logPanel := panelStyle.Width(width - 2).Render(m.renderLogTail(width - 6))

	help := helpStyle.Render("q quit · d toggle debug")

	return lipgloss.JoinVertical(lipgloss.Left, header, info, logPanel, help)
}

func (m *headlessModel) statusBadge() string {
	switch m.kind {
	case statusWatching:
		return badgeWatching.Render(m.status)
	case statusStopping:
		return badgeStopping.Render(m.status)
	case statusError:
		return badgeError.Render(m.status)
	default:
		return badgeIdle.Render(m.status)
	}
}

func (m *headlessModel) renderLogTail(width int) string {
	visible := m.height - 12
	if visible < 4 {
		visible = 4
	}
	lines := m.logLines
	if len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	if len(lines) == 0 {
		return labelStyle.Render("waiting for activity...")
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\n")
		if width > 0 && lipgloss.Width(line) > width {
			line = truncateToWidth(line, width)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func truncateToWidth(line string, width int) string {
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
