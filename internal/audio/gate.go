// SPDX-License-Identifier: MIT
package audio

import "math"

func (e *Engine) EnableGate() {
	e.gateEnabled.Store(true)
}

func (e *Engine) DisableGate() {
	e.gateEnabled.Store(false)
}

// GateEnabled reports whether quiet blocks are replaced by zeroed bars.
func (e *Engine) GateEnabled() bool {
	return e.gateEnabled.Load()
}

// SetGateThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 of int16 full scale, where 0=always open, 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 || math.IsNaN(threshold) {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	e.gateThreshold.Store(int32(math.Round(threshold * float64(math.MaxInt16))))
}

// GetGateThreshold returns the current noise gate threshold as a float64.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold.Load()) / float64(math.MaxInt16)
}

// gateOpen reports whether a block with the given peak passes the gate.
func (e *Engine) gateOpen(peak int32) bool {
	return !e.gateEnabled.Load() || peak > e.gateThreshold.Load()
}

// absPeak folds one sample into the running absolute peak without branching.
func absPeak(peak int32, sample int16) int32 {
	s := int32(sample)
	mask := s >> 31
	amplitude := (s ^ mask) - mask

	// Update max using math instead of branching.
	diff := amplitude - peak
	return peak + ((diff & (diff >> 31)) ^ diff)
}
