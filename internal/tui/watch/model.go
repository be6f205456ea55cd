// Package watch implements the live terminal view of one shared resource.
package watch

import (
	"time"

	"github.com/SatelliteQE/rendezvous/internal/errors"
	"github.com/SatelliteQE/rendezvous/internal/sharedresource"
	"github.com/SatelliteQE/rendezvous/internal/tui/styles"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Loader reads the current state of the watched resource.
type Loader func() (*sharedresource.State, error)

// Model is the Bubbletea model for the watch view
type Model struct {
	name     string
	interval time.Duration
	load     Loader

	state   *sharedresource.State
	err     error
	updated time.Time
	seen    bool // the state file has existed at least once
	gone    bool // the state file disappeared after being seen

	spinner  spinner.Model
	width    int
	quitting bool
}

type stateMsg struct {
	state *sharedresource.State
	err   error
	at    time.Time
}

type tickMsg time.Time

// New creates a watch model for resource name in dir.
func New(dir, name string, interval time.Duration) Model {
	return NewWithLoader(name, interval, func() (*sharedresource.State, error) {
		return sharedresource.Inspect(dir, name)
	})
}

// NewWithLoader creates a watch model reading state through load.
func NewWithLoader(name string, interval time.Duration, load Loader) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Warning

	return Model{
		name:     name,
		interval: interval,
		load:     load,
		spinner:  s,
	}
}

// Init starts the spinner and the first read.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		st, err := load()
		return stateMsg{state: st, err: err, at: time.Now()}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles key presses, refresh ticks and state reads.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stateMsg:
		m.updated = msg.at
		if msg.err != nil {
			var notFound *errors.NotFoundError
			if errors.As(msg.err, &notFound) {
				if m.seen {
					m.gone = true
					return m, tea.Quit
				}
				m.err = nil
				return m, m.tick()
			}
			m.err = msg.err
			return m, m.tick()
		}
		m.err = nil
		m.state = msg.state
		m.seen = true
		return m, m.tick()

	case tickMsg:
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// State returns the last state read.
func (m Model) State() *sharedresource.State { return m.state }

// Gone reports whether the state file was removed while watching.
func (m Model) Gone() bool { return m.gone }

// Err returns the last read error.
func (m Model) Err() error { return m.err }

// Run starts the interactive watch view.
func Run(dir, name string, interval time.Duration) (Model, error) {
	p := tea.NewProgram(New(dir, name, interval))
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		return m, err
	}
	return Model{}, err
}
