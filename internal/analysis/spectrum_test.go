// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBlockSize  = 1024
	testSampleRate = 44100
	testCeiling    = 10000.0
)

func sineBlock(n int, freq, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return out
}

// naiveDFT is the textbook O(n^2) transform used as a reference.
func naiveDFT(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for t, v := range x {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += complex(v, 0) * cmplx.Exp(complex(0, angle))
		}
		out[k] = cmplx.Abs(sum)
	}
	return out
}

func TestMagnitudesMatchFullDFT(t *testing.T) {
	for _, n := range []int{16, 15} {
		s, err := NewSpectrum(n, Rectangular)
		require.NoError(t, err)

		x := make([]float64, n)
		for i := range x {
			x[i] = float64((i*7)%5) - 2
		}

		got, err := s.Magnitudes(x)
		require.NoError(t, err)
		want := naiveDFT(x)
		require.Len(t, got, n)
		for k := range want {
			assert.InDelta(t, want[k], got[k], 1e-9, "n=%d bin %d", n, k)
		}
	}
}

func TestMagnitudesRejectsWrongLength(t *testing.T) {
	s, err := NewSpectrum(testBlockSize, Rectangular)
	require.NoError(t, err)
	_, err = s.Magnitudes(make([]float64, 100))
	assert.Error(t, err)
}

func TestNewSpectrumRejectsTinyBlocks(t *testing.T) {
	_, err := NewSpectrum(1, Rectangular)
	assert.Error(t, err)
}

func TestSilenceGivesZeroBars(t *testing.T) {
	s, err := NewSpectrum(testBlockSize, Rectangular)
	require.NoError(t, err)

	mags, err := s.Magnitudes(make([]float64, testBlockSize))
	require.NoError(t, err)
	bars := Bars(make([]float64, 50), mags, 1.0, testCeiling)
	for i, b := range bars {
		assert.Equal(t, 0.0, b, "bar %d", i)
	}
}

func TestFullScaleSineIsClamped(t *testing.T) {
	s, err := NewSpectrum(testBlockSize, Rectangular)
	require.NoError(t, err)

	mags, err := s.Magnitudes(sineBlock(testBlockSize, 1000, math.MaxInt16))
	require.NoError(t, err)

	for _, sens := range []float64{1, 2, 100} {
		bars := Bars(make([]float64, 50), mags, sens, testCeiling)
		var peak float64
		for _, b := range bars {
			assert.GreaterOrEqual(t, b, 0.0)
			assert.LessOrEqual(t, b, 1.0)
			peak = math.Max(peak, b)
		}
		assert.Greater(t, peak, 0.0, "sensitivity %v", sens)
	}
}

func TestBarsSegmentation(t *testing.T) {
	// L = 23, N = 5: width 4, indices 20..22 are never used.
	mags := make([]float64, 23)
	for i := range mags {
		mags[i] = float64(i)
	}
	mags[22] = 1e9

	bars := Bars(make([]float64, 5), mags, 1, 100)
	assert.Equal(t, []float64{0.03, 0.07, 0.11, 0.15, 0.19}, roundAll(bars))
}

func TestBarsSensitivityAndCeiling(t *testing.T) {
	mags := []float64{10, 20, 30, 40}
	bars := Bars(make([]float64, 2), mags, 0.5, 15)
	assert.InDelta(t, 10.0/15, bars[0], 1e-12)
	assert.Equal(t, 1.0, bars[1])
}

func TestBarsMoreBarsThanMagnitudes(t *testing.T) {
	bars := Bars([]float64{9, 9, 9}, []float64{5, 5}, 1, 10)
	assert.Equal(t, []float64{0, 0, 0}, bars)
}

func TestBarsNaNIsZero(t *testing.T) {
	bars := Bars(make([]float64, 1), []float64{math.NaN()}, 1, 10)
	assert.Equal(t, 0.0, bars[0])
}

func TestSegmentWidth(t *testing.T) {
	assert.Equal(t, 20, SegmentWidth(1024, 50))
	assert.Equal(t, 0, SegmentWidth(10, 11))
	assert.Equal(t, 0, SegmentWidth(10, 0))
}

func TestHannWindowAttenuatesEdges(t *testing.T) {
	s, err := NewSpectrum(8, Hann)
	require.NoError(t, err)
	assert.Equal(t, Hann, s.Window())
	assert.InDelta(t, 0.0, s.window[0], 1e-12)
}

func TestParseWindowFunc(t *testing.T) {
	w, err := ParseWindowFunc("HANNING")
	require.NoError(t, err)
	assert.Equal(t, Hann, w)

	w, err = ParseWindowFunc("")
	require.NoError(t, err)
	assert.Equal(t, Rectangular, w)

	_, err = ParseWindowFunc("kaiser")
	assert.Error(t, err)
}

func TestGetFrequencyForBin(t *testing.T) {
	s, err := NewSpectrum(testBlockSize, Rectangular)
	require.NoError(t, err)
	assert.InDelta(t, 43.066, s.GetFrequencyForBin(1, testSampleRate), 1e-3)
	assert.Equal(t, 0.0, s.GetFrequencyForBin(-1, testSampleRate))
}

func TestSpectrumHotPathZeroAllocs(t *testing.T) {
	s, err := NewSpectrum(testBlockSize, Rectangular)
	require.NoError(t, err)
	block := sineBlock(testBlockSize, 440, 20000)
	bars := make([]float64, 50)

	// Warm-up call.
	_, _ = s.Magnitudes(block)
	allocs := testing.AllocsPerRun(100, func() {
		mags, _ := s.Magnitudes(block)
		Bars(bars, mags, 1, testCeiling)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in spectrum hot path, got %.1f", allocs)
	}
}

func BenchmarkSpectrum(b *testing.B) {
	s, _ := NewSpectrum(testBlockSize, Rectangular)
	block := sineBlock(testBlockSize, 440, 20000)
	bars := make([]float64, 50)

	b.ReportAllocs()
	for b.Loop() {
		mags, _ := s.Magnitudes(block)
		Bars(bars, mags, 1, testCeiling)
	}
}

func roundAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Round(x*1e6) / 1e6
	}
	return out
}
