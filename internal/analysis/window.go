// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the window applied to a block before the DFT.
// Rectangular leaves the block untouched, which is what the bar ceiling is
// calibrated against.
type WindowFunc int

const (
	Rectangular WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// windows is indexed by WindowFunc. apply is nil for Rectangular.
var windows = [...]struct {
	name    string
	aliases []string
	apply   func([]float64) []float64
}{
	Rectangular:     {"rectangular", []string{"", "none"}, nil},
	BartlettHann:    {"bartletthann", nil, window.BartlettHann},
	Blackman:        {"blackman", nil, window.Blackman},
	BlackmanNuttall: {"blackmannuttall", nil, window.BlackmanNuttall},
	Hann:            {"hann", []string{"hanning"}, window.Hann},
	Hamming:         {"hamming", nil, window.Hamming},
	Lanczos:         {"lanczos", nil, window.Lanczos},
	Nuttall:         {"nuttall", nil, window.Nuttall},
}

func (w WindowFunc) String() string {
	if w < 0 || int(w) >= len(windows) {
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
	return windows[w].name
}

// ParseWindowFunc maps a case-insensitive name to a WindowFunc. Unknown
// names return Rectangular and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for w, def := range windows {
		if def.name == name {
			return WindowFunc(w), nil
		}
		for _, alias := range def.aliases {
			if alias == name {
				return WindowFunc(w), nil
			}
		}
	}
	return Rectangular, fmt.Errorf("unknown FFT window function name: '%s'", name)
}

// windowCoefficients returns n coefficients for w. Callers multiply samples
// by them; Rectangular and unknown values yield all ones.
func windowCoefficients(n int, w WindowFunc) []float64 {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1
	}
	if w >= 0 && int(w) < len(windows) && windows[w].apply != nil {
		windows[w].apply(coeffs) // Scales in place.
	}
	return coeffs
}
