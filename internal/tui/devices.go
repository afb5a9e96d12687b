// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"equalizer/internal/audio"
)

var highlightStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#25A065")).
	Bold(true)

// Selection is the host and device chosen in the picker. The names are
// exact and can be passed to --host and --device.
type Selection struct {
	Host   string
	Device string
}

// DeviceListModel lists the input devices of every host and lets the user
// pick one.
type DeviceListModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	chosen        bool

	up, down, choose, quit key.Binding
}

// NewDeviceListModel keeps only devices with input channels.
func NewDeviceListModel(hosts []audio.Host) DeviceListModel {
	var inputs []audio.Device
	for _, h := range hosts {
		for _, d := range h.Devices {
			if d.MaxInputChannels > 0 {
				inputs = append(inputs, d)
			}
		}
	}

	return DeviceListModel{
		devices: inputs,
		up:      key.NewBinding(key.WithKeys("up", "k")),
		down:    key.NewBinding(key.WithKeys("down", "j")),
		choose:  key.NewBinding(key.WithKeys("enter")),
		quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
	}
}

// Init does nothing; the device list is gathered before the program starts.
func (m DeviceListModel) Init() tea.Cmd {
	return nil
}

// Update handles input and updates the model.
func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.viewport.SetContent(m.renderDevices())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.quit):
			return m, tea.Quit

		case key.Matches(msg, m.up):
			if m.selectedIndex > 0 {
				m.selectedIndex--
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, m.down):
			if m.selectedIndex < len(m.devices)-1 {
				m.selectedIndex++
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, m.choose):
			if len(m.devices) > 0 {
				m.chosen = true
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the UI.
func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("Input Devices")
	help := infoStyle.Render("↑/↓: Navigate • Enter: Select • q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		marker := ""
		if d.IsDefaultInput {
			marker = " [default input]"
		}
		info := fmt.Sprintf("[%d] %s (%s)%s\n", d.Index, d.Name, d.HostAPI, marker)
		info += fmt.Sprintf("    Input channels: %d, Default sample rate: %.0f Hz\n",
			d.MaxInputChannels, d.DefaultSampleRate)

		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Selected returns the highlighted device and whether the user confirmed
// it with Enter.
func (m DeviceListModel) Selected() (Selection, bool) {
	if !m.chosen || len(m.devices) == 0 {
		return Selection{}, false
	}
	d := m.devices[m.selectedIndex]
	return Selection{Host: d.HostAPI, Device: d.Name}, true
}

// PickDevice runs the picker full screen. ok is false when the user quit
// without choosing.
func PickDevice(hosts []audio.Host) (sel Selection, ok bool, err error) {
	final, err := tea.NewProgram(NewDeviceListModel(hosts), tea.WithAltScreen()).Run()
	if err != nil {
		return Selection{}, false, err
	}
	m, _ := final.(DeviceListModel)
	sel, ok = m.Selected()
	return sel, ok, nil
}
