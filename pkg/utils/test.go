// Package utils holds signal generators and fakes shared by tests.
package utils

import (
	"math"
	"sync"

	"visualizer/internal/render"
)

// MockRenderer implements render.Renderer for testing. It keeps a copy of
// every frame it is given.
type MockRenderer struct {
	mu     sync.Mutex
	frames []render.Frame
	Err    error // Returned by Render when set
}

// Render stores a copy of the frame instead of drawing it.
func (m *MockRenderer) Render(f render.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.Bars = append([]float64(nil), f.Bars...)
	m.frames = append(m.frames, f)
	return m.Err
}

// Frames returns the frames rendered so far.
func (m *MockRenderer) Frames() []render.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]render.Frame(nil), m.frames...)
}

// Last returns the most recent frame and whether there was one.
func (m *MockRenderer) Last() (render.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return render.Frame{}, false
	}
	return m.frames[len(m.frames)-1], true
}

func GenerateComplexWave(size int, sampleRate float64) []int16 {
	buffer := make([]int16, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
		buffer[i] = int16(signal * math.MaxInt16 * 0.9)
	}
	return buffer
}

// GenerateSineWave returns size samples of a sine at the given amplitude
// (fraction of int16 full scale).
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []int16 {
	buffer := make([]int16, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int16(math.Sin(2*math.Pi*frequency*t) * math.MaxInt16 * amplitude)
	}
	return buffer
}

// Interleave builds a frame-interleaved block with mono on channel 0 and
// fill on every other channel.
func Interleave(mono []int16, channels int, fill int16) []int16 {
	out := make([]int16, len(mono)*channels)
	for i, v := range mono {
		out[i*channels] = v
		for c := 1; c < channels; c++ {
			out[i*channels+c] = fill
		}
	}
	return out
}

func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
