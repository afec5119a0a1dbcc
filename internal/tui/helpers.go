package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens a string to a maximum length
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// renderBar draws a percentage bar of the given length
func renderBar(percent float64, length int) string {
	filled := int(percent / 100 * float64(length))
	if filled > length {
		filled = length
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("─", length-filled)
}

// colorize picks green/orange/red by load
func colorize(percent float64, text string) string {
	var color string
	switch {
	case percent > 80:
		color = "#F38BA8" // red/pink
	case percent > 50:
		color = "#FAB387" // orange
	default:
		color = "#A6E3A1" // green
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// formatBytes formats bytes with binary units
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
