package tui

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}

		case "R":
			if !m.loading {
				m.loading = true
				return m, fetchRecords(m.source, m.timeout)
			}
		}

	case tickMsg:
		// Skip this tick if the previous cycle is still running
		if m.loading {
			return m, tickCmd(m.interval)
		}
		m.loading = true
		return m, tea.Batch(fetchRecords(m.source, m.timeout), tickCmd(m.interval))

	case recordsMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			// Keep showing the last good cycle
			return m, nil
		}

		m.rows = make([]row, 0, len(msg.records))
		for id, rec := range msg.records {
			m.rows = append(m.rows, row{id: id, record: rec})
		}
		sort.Slice(m.rows, func(i, j int) bool {
			if m.rows[i].record.ContainerName != m.rows[j].record.ContainerName {
				return m.rows[i].record.ContainerName < m.rows[j].record.ContainerName
			}
			return m.rows[i].id < m.rows[j].id
		})
		if m.cursor >= len(m.rows) {
			m.cursor = max(len(m.rows)-1, 0)
		}
		m.lastUpdate = msg.at
	}

	return m, nil
}
