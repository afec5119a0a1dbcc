package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rusenback/docker-exporter/internal/model"
)

// Gatherer runs one collection cycle without publishing it.
type Gatherer interface {
	Gather(ctx context.Context) (map[string]model.Record, error)
}

// row is one container line of the table
type row struct {
	id     string
	record model.Record
}

// Model represents the watch view state
type Model struct {
	source   Gatherer
	interval time.Duration
	timeout  time.Duration

	rows       []row
	cursor     int
	err        error
	loading    bool
	lastUpdate time.Time

	width  int
	height int
}

// Message types for Bubbletea update loop
type tickMsg time.Time

type recordsMsg struct {
	records map[string]model.Record
	err     error
	at      time.Time
}

// NewModel creates a watch model refreshing every interval; timeout bounds one cycle
func NewModel(source Gatherer, interval, timeout time.Duration) Model {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return Model{
		source:   source,
		interval: interval,
		timeout:  timeout,
		loading:  true,
	}
}

// Init starts the first cycle and the refresh ticker
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchRecords(m.source, m.timeout), tickCmd(m.interval))
}
