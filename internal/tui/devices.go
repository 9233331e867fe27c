package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"visualizer/internal/audio"
)

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// statusMsg replaces the status line.
type statusMsg string

// fetchDevices gets the available input devices.
func (m Model) fetchDevices() tea.Msg {
	devices, err := m.ctrl.ListDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

// selectDevice switches capture to dev.
func (m Model) selectDevice(dev audio.Device) tea.Cmd {
	return func() tea.Msg {
		if err := m.ctrl.SelectDevice(dev.ID); err != nil {
			return errMsg{err}
		}
		return statusMsg(fmt.Sprintf("Listening to %s", dev.Name))
	}
}

func (m Model) updateDevices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.screen = BarsScreen
		m.keys.devicePage = false

	case key.Matches(msg, m.keys.Up):
		if m.selectedIndex > 0 {
			m.selectedIndex--
			m.viewport.SetContent(m.renderDevices())
		}

	case key.Matches(msg, m.keys.Down):
		if m.selectedIndex < len(m.devices)-1 {
			m.selectedIndex++
			m.viewport.SetContent(m.renderDevices())
		}

	case key.Matches(msg, m.keys.Select):
		if len(m.devices) > 0 {
			dev := m.devices[m.selectedIndex]
			m.screen = BarsScreen
			m.keys.devicePage = false
			m.status = fmt.Sprintf("Opening %s...", dev.Name)
			return m, m.selectDevice(dev)
		}
	}
	return m, nil
}

// renderDevices formats the device list
func (m Model) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	current := m.ctrl.Visual().SelectedDevice()

	var sb strings.Builder
	for i, device := range m.devices {
		marker := " "
		if device.ID == current {
			marker = "*"
		}
		deviceInfo := fmt.Sprintf("%s [%d] %s (%s)\n", marker, device.ID, device.Name, device.Kind)
		deviceInfo += fmt.Sprintf("    Input channels: %d, Default sample rate: %.0f Hz\n",
			device.MaxInputChannels, device.DefaultSampleRate)

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}

	return sb.String()
}

// indexOf returns the list position of device id, or 0.
func indexOf(devices []audio.Device, id int) int {
	for i, d := range devices {
		if d.ID == id {
			return i
		}
	}
	return 0
}
