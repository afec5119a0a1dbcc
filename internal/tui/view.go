package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const barLength = 10

// View renders the container table
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("docker-exporter watch"))
	s.WriteString("\n\n")

	header := fmt.Sprintf("%-24s %-20s %-20s %-21s %-21s %5s",
		"NAME", "CPU", "MEM", "NET RX/TX", "BLOCK R/W", "PIDS")
	s.WriteString(headerStyle.Render(header))
	s.WriteString("\n")

	if len(m.rows) == 0 {
		if m.loading {
			s.WriteString("Collecting...\n")
		} else {
			s.WriteString("No running containers\n")
		}
	}

	for i, r := range m.rows {
		rec := r.record
		cpu := fmt.Sprintf("%s %6.2f%%", renderBar(rec.CPUPercent, barLength), rec.CPUPercent)
		mem := fmt.Sprintf("%s %6.2f%%", renderBar(rec.MemPercent, barLength), rec.MemPercent)
		line := fmt.Sprintf("%-24s %s %s %-21s %-21s %5d",
			truncate(rec.ContainerName, 24),
			colorize(rec.CPUPercent, cpu),
			colorize(rec.MemPercent, mem),
			formatBytes(rec.NetRxBytes)+"/"+formatBytes(rec.NetTxBytes),
			formatBytes(rec.BlkioReadBytes)+"/"+formatBytes(rec.BlkioWriteBytes),
			rec.NumProcs,
		)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	if len(m.rows) > 0 && m.cursor < len(m.rows) {
		s.WriteString("\n")
		s.WriteString(m.renderDetail(m.rows[m.cursor]))
		s.WriteString("\n")
	}

	s.WriteString(m.renderStatus())
	s.WriteString(helpStyle.Render("↑/k ↓/j: select • R: refresh • q: quit"))

	return s.String()
}

// renderDetail shows the raw values of the selected container
func (m Model) renderDetail(r row) string {
	rec := r.record
	lines := []string{
		fmt.Sprintf("ID:     %s", truncate(r.id, 64)),
		fmt.Sprintf("Memory: %s / %s", formatBytes(rec.MemUsageBytes), formatBytes(rec.MemLimitBytes)),
	}
	for _, reason := range rec.Degraded {
		lines = append(lines, errorStyle.Render("degraded: "+reason))
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("Last cycle failed: "+m.err.Error()) + "\n"
	case m.lastUpdate.IsZero():
		return ""
	default:
		return fmt.Sprintf("%d containers, updated %s\n", len(m.rows), m.lastUpdate.Format("15:04:05"))
	}
}
