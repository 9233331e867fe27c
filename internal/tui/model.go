// Package tui is the terminal renderer and keyboard control surface. Frames
// from the render clock arrive as messages; key presses become controller
// calls.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"visualizer/internal/audio"
	"visualizer/internal/config"
	"visualizer/internal/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)

// Rows taken by the title, status and help lines.
const chromeRows = 4

// Sensitivity step for +/-.
const sensitivityStep = 1.25

// Presets cycled by the colors key; the first is the default gradient.
var Presets = [][2]config.RGB{
	{config.DefaultColorStart, config.DefaultColorEnd},
	{{R: 0x00, G: 0xBF, B: 0xFF}, {R: 0xFF, G: 0x00, B: 0xFF}},
	{{R: 0xFF, G: 0xD7, B: 0x00}, {R: 0xFF, G: 0x45, B: 0x00}},
	{{R: 0xFF, G: 0xFF, B: 0xFF}, {R: 0x40, G: 0x40, B: 0x40}},
}

// ScreenType defines which screen is currently active
type ScreenType int

const (
	BarsScreen ScreenType = iota
	DeviceScreen
)

// Controller is the part of control.Controller the UI drives.
type Controller interface {
	ListDevices() ([]audio.Device, error)
	SelectDevice(id int) error
	Toggle() error
	State() audio.State
	ScaleSensitivity(factor float64) (float64, error)
	SetBarCount(n int) error
	SetColors(start, end config.RGB)
	Visual() *config.Visual
}

// FrameMsg carries one render tick. Its bars are owned by the message.
type FrameMsg struct {
	Frame render.Frame
}

// Model is the Bubble Tea model of the visualizer.
type Model struct {
	ctrl     Controller
	keys     keyMap
	help     help.Model
	viewport viewport.Model
	screen   ScreenType

	frame  render.Frame
	width  int
	height int
	ready  bool

	devices       []audio.Device
	selectedIndex int
	preset        int

	status string
	err    error
}

// NewModel returns a model on the bars screen.
func NewModel(ctrl Controller) Model {
	return Model{
		ctrl:   ctrl,
		keys:   defaultKeyMap(),
		help:   help.New(),
		screen: BarsScreen,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-chromeRows, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-chromeRows, 1)
		}
		return m, nil

	case FrameMsg:
		m.frame = msg.Frame
		return m, nil

	case devicesMsg:
		m.devices = msg.devices
		m.selectedIndex = indexOf(m.devices, m.ctrl.Visual().SelectedDevice())
		m.viewport.SetContent(m.renderDevices())
		return m, nil

	case statusMsg:
		m.status, m.err = string(msg), nil
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.screen == DeviceScreen {
			return m.updateDevices(msg)
		}
		return m.updateBars(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateBars(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggle

	case key.Matches(msg, m.keys.More):
		m.scaleSensitivity(sensitivityStep)

	case key.Matches(msg, m.keys.Less):
		m.scaleSensitivity(1 / sensitivityStep)

	case key.Matches(msg, m.keys.MoreBars):
		m.setBarCount(m.ctrl.Visual().BarCount() + 1)

	case key.Matches(msg, m.keys.FewerBars):
		m.setBarCount(m.ctrl.Visual().BarCount() - 1)

	case key.Matches(msg, m.keys.Colors):
		m.preset = (m.preset + 1) % len(Presets)
		p := Presets[m.preset]
		m.ctrl.SetColors(p[0], p[1])
		m.status, m.err = fmt.Sprintf("Colors %s → %s", p[0].Hex(), p[1].Hex()), nil

	case key.Matches(msg, m.keys.Devices):
		m.screen = DeviceScreen
		m.keys.devicePage = true
		return m, m.fetchDevices
	}
	return m, nil
}

func (m Model) toggle() tea.Msg {
	if err := m.ctrl.Toggle(); err != nil {
		return errMsg{err}
	}
	return statusMsg(fmt.Sprintf("Capture %s", m.ctrl.State()))
}

func (m *Model) scaleSensitivity(factor float64) {
	s, err := m.ctrl.ScaleSensitivity(factor)
	if err != nil {
		m.err = err
		return
	}
	m.status, m.err = fmt.Sprintf("Sensitivity %.2f", s), nil
}

func (m *Model) setBarCount(n int) {
	if err := m.ctrl.SetBarCount(n); err != nil {
		m.err = err
		return
	}
	m.status, m.err = fmt.Sprintf("Bars %d", n), nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var title, body string
	if m.screen == DeviceScreen {
		title = titleStyle.Render("Input Devices")
		body = m.viewport.View()
	} else {
		title = titleStyle.Render(fmt.Sprintf("Spectrum (%s)", m.ctrl.State()))
		body = renderBars(m.frame, m.width, m.height-chromeRows)
	}

	status := infoStyle.Render(m.status)
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return strings.Join([]string{title, body, status, m.help.View(m.keys)}, "\n")
}

// Renderer forwards render clock frames to a running program.
type Renderer struct {
	send func(tea.Msg)
}

// NewRenderer sends frames to p.
func NewRenderer(p *tea.Program) *Renderer {
	return &Renderer{send: p.Send}
}

// Render implements render.Renderer. It blocks until the program accepts
// the frame or has exited.
func (r *Renderer) Render(f render.Frame) error {
	r.send(FrameMsg{Frame: f.Clone()})
	return nil
}

var _ render.Renderer = (*Renderer)(nil)
