package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualizer/internal/audio"
	"visualizer/internal/config"
	"visualizer/internal/render"
)

type fakeController struct {
	visual   *config.Visual
	devices  []audio.Device
	state    audio.State
	selected []int
	toggles  int
	err      error
}

func newFakeController() *fakeController {
	return &fakeController{
		visual: config.NewVisual(),
		devices: []audio.Device{
			{ID: 0, Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000, Kind: audio.KindMicrophone},
			{ID: 3, Name: "Stereo Mix", MaxInputChannels: 2, DefaultSampleRate: 44100, Kind: audio.KindLoopback},
		},
	}
}

func (f *fakeController) ListDevices() ([]audio.Device, error) { return f.devices, f.err }

func (f *fakeController) SelectDevice(id int) error {
	if f.err != nil {
		return f.err
	}
	f.selected = append(f.selected, id)
	f.visual.SetSelectedDevice(id)
	f.state = audio.StateRunning
	return nil
}

func (f *fakeController) Toggle() error {
	f.toggles++
	if f.err != nil {
		return f.err
	}
	if f.state == audio.StateRunning {
		f.state = audio.StateIdle
	} else {
		f.state = audio.StateRunning
	}
	return nil
}

func (f *fakeController) State() audio.State { return f.state }

func (f *fakeController) ScaleSensitivity(factor float64) (float64, error) {
	s := f.visual.Sensitivity() * factor
	if err := f.visual.SetSensitivity(s); err != nil {
		return f.visual.Sensitivity(), err
	}
	return s, nil
}

func (f *fakeController) SetBarCount(n int) error { return f.visual.SetBarCount(n) }
func (f *fakeController) SetColors(start, end config.RGB) { f.visual.SetColors(start, end) }
func (f *fakeController) Visual() *config.Visual { return f.visual }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press applies msg and runs the returned command, feeding its message back.
func press(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	m, cmd := m.Update(msg)
	if cmd != nil {
		if out := cmd(); out != nil {
			m, _ = m.Update(out)
		}
	}
	return m
}

func sized(ctrl Controller) tea.Model {
	m, _ := NewModel(ctrl).Update(tea.WindowSizeMsg{Width: 40, Height: 14})
	return m
}

func TestViewBeforeSize(t *testing.T) {
	assert.Equal(t, "Initializing...", NewModel(newFakeController()).View())
}

func TestToggleKey(t *testing.T) {
	ctrl := newFakeController()
	m := sized(ctrl)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, 1, ctrl.toggles)
	assert.Equal(t, audio.StateRunning, ctrl.state)
	assert.Contains(t, m.View(), "Capture running")

	press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, audio.StateIdle, ctrl.state)
}

func TestToggleErrorIsShown(t *testing.T) {
	ctrl := newFakeController()
	ctrl.err = errors.New("could not start: no usable input device")

	m := press(t, sized(ctrl), tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Contains(t, m.View(), "no usable input device")
}

func TestSensitivityKeys(t *testing.T) {
	ctrl := newFakeController()
	m := sized(ctrl)

	m = press(t, m, runes("+"))
	assert.InDelta(t, sensitivityStep, ctrl.visual.Sensitivity(), 1e-12)
	press(t, m, runes("-"))
	assert.InDelta(t, 1.0, ctrl.visual.Sensitivity(), 1e-12)
}

func TestBarCountKeys(t *testing.T) {
	ctrl := newFakeController()
	m := sized(ctrl)

	m = press(t, m, runes("]"))
	assert.Equal(t, config.DefaultBarCount+1, ctrl.visual.BarCount())
	m = press(t, m, runes("["))
	m = press(t, m, runes("["))
	assert.Equal(t, config.DefaultBarCount-1, ctrl.visual.BarCount())

	require.NoError(t, ctrl.visual.SetBarCount(1))
	m = press(t, m, runes("["))
	assert.Equal(t, 1, ctrl.visual.BarCount(), "bar count stays valid")
	assert.Contains(t, m.View(), "Error")
}

func TestColorKeyCyclesPresets(t *testing.T) {
	ctrl := newFakeController()
	m := sized(ctrl)

	for i := 1; i <= len(Presets); i++ {
		m = press(t, m, runes("c"))
		start, end := ctrl.visual.Colors()
		want := Presets[i%len(Presets)]
		assert.Equal(t, want[0], start)
		assert.Equal(t, want[1], end)
	}
}

func TestDeviceScreenSelect(t *testing.T) {
	ctrl := newFakeController()
	m := sized(ctrl)

	m = press(t, m, runes("d"))
	assert.Equal(t, DeviceScreen, m.(Model).screen)
	view := m.View()
	assert.Contains(t, view, "Input Devices")
	assert.Contains(t, view, "Stereo Mix (loopback)")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []int{3}, ctrl.selected)
	assert.Equal(t, BarsScreen, m.(Model).screen)
	assert.Contains(t, m.View(), "Listening to Stereo Mix")
}

func TestDeviceScreenStartsOnSelectedDevice(t *testing.T) {
	ctrl := newFakeController()
	ctrl.visual.SetSelectedDevice(3)

	m := press(t, sized(ctrl), runes("d"))
	assert.Equal(t, 1, m.(Model).selectedIndex)
}

func TestDeviceScreenBack(t *testing.T) {
	ctrl := newFakeController()
	m := press(t, sized(ctrl), runes("d"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, BarsScreen, m.(Model).screen)
	assert.Empty(t, ctrl.selected)
}

func TestQuit(t *testing.T) {
	_, cmd := sized(newFakeController()).Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestFrameIsDrawn(t *testing.T) {
	m := sized(newFakeController())
	m, _ = m.Update(FrameMsg{Frame: render.Frame{
		Generation: 1,
		Bars:       []float64{1, 0, 0.5, 0},
		ColorStart: config.DefaultColorStart,
		ColorEnd:   config.DefaultColorEnd,
	}})
	assert.Contains(t, m.View(), barGlyph)
}

func TestRenderBarsHeights(t *testing.T) {
	f := render.Frame{Bars: []float64{1, 0, 0.5}}
	out := renderBars(f, 3, 4)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)

	// Column heights 4, 0, 2 from the bottom.
	assert.Equal(t, 1, strings.Count(lines[0], barGlyph))
	assert.Equal(t, 2, strings.Count(lines[2], barGlyph))
	assert.Equal(t, 2, strings.Count(lines[3], barGlyph))
}

func TestRenderBarsFillWidth(t *testing.T) {
	tests := []struct {
		name  string
		width int
		bars  []float64
		want  int
	}{
		{"Even split", 12, []float64{1, 1, 1}, 12},
		{"Uneven split", 10, []float64{1, 1, 1}, 10},
		{"Narrower than bar count", 2, []float64{1, 1, 1, 1}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderBars(render.Frame{Bars: tt.bars}, tt.width, 1)
			assert.Equal(t, tt.want, strings.Count(out, barGlyph))
		})
	}
}

func TestRenderBarsRoundsHeights(t *testing.T) {
	// 0.04 of 20 rows is 0.8 cells, drawn as one; 1.5 is clamped.
	lines := strings.Split(renderBars(render.Frame{Bars: []float64{0.04, 1.5}}, 2, 20), "\n")
	require.Len(t, lines, 20)
	assert.Equal(t, 1, strings.Count(lines[0], barGlyph))
	assert.Equal(t, 2, strings.Count(lines[19], barGlyph))
}

func TestRenderBarsEmpty(t *testing.T) {
	assert.NotContains(t, renderBars(render.Frame{}, 10, 3), barGlyph)
}

func TestRendererClonesFrame(t *testing.T) {
	var got []tea.Msg
	r := &Renderer{send: func(msg tea.Msg) { got = append(got, msg) }}

	bars := []float64{0.1, 0.2}
	require.NoError(t, r.Render(render.Frame{Generation: 4, Bars: bars, Fresh: true}))
	bars[0] = 9

	require.Len(t, got, 1)
	msg := got[0].(FrameMsg)
	assert.Equal(t, uint64(4), msg.Frame.Generation)
	assert.Equal(t, []float64{0.1, 0.2}, msg.Frame.Bars)
}
