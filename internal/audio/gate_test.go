// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"strconv"
	"testing"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

func TestGateEnableHotPath(t *testing.T) {
	engine := &Engine{}

	if engine.GateEnabled() {
		t.Error("Gate should be disabled initially")
	}

	engine.EnableGate()
	if !engine.GateEnabled() {
		t.Error("Gate should be enabled after EnableGate()")
	}

	engine.DisableGate()
	if engine.GateEnabled() {
		t.Error("Gate should be disabled after DisableGate()")
	}

	engine.EnableGate()
	engine.EnableGate() // Multiple calls should be idempotent
	if !engine.GateEnabled() {
		t.Error("Gate should remain enabled after multiple EnableGate()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0},       // Below min
		{0.0, 0.0},        // Minimum
		{0.5, 0.5},        // Middle
		{1.0, 1.0},        // Maximum
		{1.5, 1.0},        // Above max
		{math.NaN(), 0.0}, // Not a number
	}

	engine := &Engine{}

	for _, tt := range tests {
		t.Run(formatFloat(tt.input), func(t *testing.T) {
			engine.SetGateThreshold(tt.input)
			got := engine.GetGateThreshold()

			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("Gate threshold conversion: got %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateThresholdInt16Scale(t *testing.T) {
	engine := &Engine{}

	engine.SetGateThreshold(1.0)
	if got := engine.gateThreshold.Load(); got != math.MaxInt16 {
		t.Errorf("Full threshold = %d, want %d", got, math.MaxInt16)
	}

	engine.SetGateThreshold(0.1)
	if got := engine.gateThreshold.Load(); got != 3277 {
		t.Errorf("10%% threshold = %d, want 3277", got)
	}
}

func TestAbsPeak(t *testing.T) {
	tests := []struct {
		desc    string
		samples []int16
		want    int32
	}{
		{"Silence", []int16{0, 0, 0}, 0},
		{"Positive", []int16{1, 5, 3}, 5},
		{"Negative wins", []int16{4, -9, 2}, 9},
		{"Int16 minimum", []int16{math.MinInt16, 100}, 32768},
		{"Int16 maximum", []int16{math.MaxInt16}, 32767},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var peak int32
			for _, s := range tt.samples {
				peak = absPeak(peak, s)
			}
			if peak != tt.want {
				t.Errorf("absPeak() = %d, want %d", peak, tt.want)
			}
		})
	}
}

func TestGateOpen(t *testing.T) {
	tests := []struct {
		desc      string
		peak      int32
		enabled   bool
		threshold float64
		open      bool
	}{
		{"Gate disabled/Quiet signal", 10, false, 0.1, true},
		{"Gate disabled/Silence", 0, false, 0.1, true},
		{"Gate enabled/Quiet signal/Low threshold", 100, true, 0.001, true},
		{"Gate enabled/Quiet signal/Mid threshold", 100, true, 0.1, false},
		{"Gate enabled/Loud signal/Mid threshold", 30000, true, 0.1, true},
		{"Gate enabled/Loud signal/Closed", math.MaxInt16, true, 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine := &Engine{}
			engine.SetGateThreshold(tt.threshold)
			if tt.enabled {
				engine.EnableGate()
			}

			if got := engine.gateOpen(tt.peak); got != tt.open {
				t.Errorf("gateOpen(%d) = %v, want %v (threshold=%d)",
					tt.peak, got, tt.open, engine.gateThreshold.Load())
			}
		})
	}
}

func BenchmarkGateThresholdConversionHotPath(b *testing.B) {
	engine := &Engine{}
	values := []float64{0.0, 0.25, 0.5, 0.75, 1.0}

	for _, v := range values {
		b.Run(formatFloat(v), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				engine.SetGateThreshold(v)
				_ = engine.GetGateThreshold() // Discard result to prevent optimization
			}
		})
	}
}

func BenchmarkAbsPeakHotPath(b *testing.B) {
	block := make([]int16, 1024)
	for i := range block {
		block[i] = int16((i*37)%2000 - 1000)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		var peak int32
		for _, s := range block {
			peak = absPeak(peak, s)
		}
		_ = peak
	}
}
