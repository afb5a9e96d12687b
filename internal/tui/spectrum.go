// SPDX-License-Identifier: MIT
/*
Package tui renders the equalizer as a bar graph in the terminal.

A render tick drives everything: each tick the Feed drains the equalizer's
published snapshots, forwards them to the transports and hands the newest to
the view. Rendering never waits for the audio path.
*/
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"equalizer/internal/dsp"
	"equalizer/internal/equalizer"
	applog "equalizer/internal/log"
	"equalizer/internal/transport"
)

const (
	defaultRows = 16
	minRows     = 4
	maxRows     = 40
	// chromeRows is the height of everything except the bars.
	chromeRows = 7
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E85D47")).
			Bold(true)
)

// Pipeline is the part of the equalizer the display drives.
type Pipeline interface {
	Poller
	Play() error
	Pause() error
	Stats() equalizer.Stats
	SourceName() string
	SampleRate() float64
	Bins() int
}

type keyMap struct {
	Pause key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Pause: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p/space", "pause/play")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

// SpectrumModel is the Bubble Tea model for the bar graph.
type SpectrumModel struct {
	pipeline Pipeline
	feed     *Feed
	meter    *Meter
	keys     keyMap
	help     help.Model
	tick     time.Duration
	log      applog.Logger

	rows   int
	labels []string
	levels []float64
	paused bool
	frames uint64
	err    error
}

// NewSpectrumModel builds a model that polls p every tick and forwards
// snapshots to out, which may be nil.
func NewSpectrumModel(p Pipeline, out transport.Transport, tick time.Duration, logger applog.Logger) SpectrumModel {
	logger = applog.OrNop(logger)
	return SpectrumModel{
		pipeline: p,
		feed:     NewFeed(p, out, logger),
		meter:    &Meter{},
		keys:     defaultKeys,
		help:     help.New(),
		tick:     tick,
		log:      logger,
		rows:     defaultRows,
		labels:   dsp.Labels(p.Bins()),
	}
}

// Init starts the render tick.
func (m SpectrumModel) Init() tea.Cmd {
	return tickCmd(m.tick)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles ticks, window resizes and key presses.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.rows = min(max(msg.Height-chromeRows, minRows), maxRows)
		m.help.Width = msg.Width

	case tickMsg:
		snap, err := m.feed.Tick()
		if err != nil {
			m.err = err
			m.log.Errorf("Display: %v", err)
			return m, tea.Quit
		}
		m.levels = m.meter.Levels(snap, m.levels)
		m.frames = m.feed.Seq()
		return m, tickCmd(m.tick)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.togglePause()
		}
	}
	return m, nil
}

func (m *SpectrumModel) togglePause() {
	var err error
	if m.paused {
		err = m.pipeline.Play()
	} else {
		err = m.pipeline.Pause()
	}
	if err != nil {
		m.log.Warnf("Display: %v", err)
		return
	}
	m.paused = !m.paused
}

// View renders the title, the bars and a status line.
func (m SpectrumModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("Equalizer · %s · %.0f Hz", m.pipeline.SourceName(), m.pipeline.SampleRate()))

	body := renderBars(m.levels, m.labels, m.rows)
	if m.err != nil && !errors.Is(m.err, equalizer.ErrWorkerStopped) {
		body = errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		body,
		"",
		infoStyle.Render(m.status()),
		m.help.View(m.keys),
	)
}

func (m SpectrumModel) status() string {
	stats := m.pipeline.Stats()
	state := "playing"
	if m.paused {
		state = "paused"
	}
	return fmt.Sprintf("%s · frames %d · dropped %d · shown %d · skipped %d",
		state, stats.Accepted, stats.Dropped, m.frames, m.feed.Skipped())
}

// Err returns the error that ended the display, if any.
func (m SpectrumModel) Err() error {
	return m.err
}

// Run shows the bar graph until the user quits, ctx is done or the
// equalizer stops.
func Run(ctx context.Context, p Pipeline, out transport.Transport, tick time.Duration, logger applog.Logger) error {
	program := tea.NewProgram(
		NewSpectrumModel(p, out, tick, logger),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	if m, ok := final.(SpectrumModel); ok {
		return m.Err()
	}
	return nil
}
