// SPDX-License-Identifier: MIT
/*
Package analysis turns one block of audio samples into bar heights.

Each block goes through the magnitude of its full-length discrete Fourier
transform; the magnitude sequence is split into equal-width segments, each
segment's peak is scaled by the sensitivity, clamped to a ceiling and
normalised linearly to [0, 1].

All buffers are allocated by NewSpectrum; Magnitudes and Bars do not
allocate, so both are safe to call from the audio callback.
*/
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum computes full-length DFT magnitudes for fixed-size blocks.
type Spectrum struct {
	size       int
	fft        *fourier.FFT
	window     []float64
	windowType WindowFunc

	input  []float64    // Windowed input samples.
	coeffs []complex128 // Real FFT output, size/2 + 1 values.
	mags   []float64    // Full-length magnitudes, size values.
}

// NewSpectrum pre-allocates an analyser for blocks of size samples.
func NewSpectrum(size int, windowType WindowFunc) (*Spectrum, error) {
	if size < 2 {
		return nil, fmt.Errorf("block size must be at least 2, got %d", size)
	}
	return &Spectrum{
		size:       size,
		fft:        fourier.NewFFT(size),
		window:     windowCoefficients(size, windowType),
		windowType: windowType,
		input:      make([]float64, size),
		coeffs:     make([]complex128, size/2+1),
		mags:       make([]float64, size),
	}, nil
}

// Size returns the block length, which is also the magnitude sequence length.
func (s *Spectrum) Size() int { return s.size }

// Window returns the configured window function.
func (s *Spectrum) Window() WindowFunc { return s.windowType }

// Magnitudes returns |X[k]| for k in [0, size). The input must hold exactly
// size samples. The returned slice is owned by the Spectrum and overwritten
// by the next call.
//
// The transform of a real block is Hermitian, so the upper half is the
// mirror of the lower half; this equals the magnitude of a full complex DFT.
func (s *Spectrum) Magnitudes(samples []float64) ([]float64, error) {
	if len(samples) != s.size {
		return nil, fmt.Errorf("block has %d samples, want %d", len(samples), s.size)
	}
	for i, v := range samples {
		s.input[i] = v * s.window[i]
	}

	s.fft.Coefficients(s.coeffs, s.input)

	for k, c := range s.coeffs {
		m := cmplx.Abs(c)
		s.mags[k] = m
		if j := s.size - k; k > 0 && j != k && j < s.size {
			s.mags[j] = m
		}
	}
	return s.mags, nil
}

// GetFrequencyForBin returns the frequency (Hz) of bin k at the given sample rate.
func (s *Spectrum) GetFrequencyForBin(k int, sampleRate float64) float64 {
	if k < 0 || k >= s.size {
		return 0
	}
	return float64(k) * sampleRate / float64(s.size)
}

// SegmentWidth is floor(length / bars); zero when there are more bars than
// magnitudes.
func SegmentWidth(length, bars int) int {
	if bars <= 0 {
		return 0
	}
	return length / bars
}

// Bars aggregates magnitudes into len(dst) bars and returns dst.
//
// Bar i is the peak of mags[i*w : (i+1)*w] with w = SegmentWidth; the
// trailing len(mags) mod len(dst) values belong to no bar. Each peak is
// multiplied by sensitivity, clamped to [0, ceiling] and divided by ceiling,
// so every bar lies in [0, 1]. NaN peaks become 0.
func Bars(dst, mags []float64, sensitivity, ceiling float64) []float64 {
	w := SegmentWidth(len(mags), len(dst))
	for i := range dst {
		if w == 0 {
			dst[i] = 0
			continue
		}
		seg := mags[i*w : (i+1)*w]
		peak := seg[0]
		for _, m := range seg[1:] {
			if m > peak {
				peak = m
			}
		}
		dst[i] = normalize(peak*sensitivity, ceiling)
	}
	return dst
}

func normalize(v, ceiling float64) float64 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= ceiling:
		return 1
	default:
		return v / ceiling
	}
}
