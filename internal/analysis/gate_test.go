// SPDX-License-Identifier: MIT
package analysis

import (
	"strconv"
	"testing"
)

func TestGateEnable(t *testing.T) {
	g := NewGate(0.1)
	if !g.Enabled() {
		t.Error("Gate should be enabled initially")
	}

	g.Disable()
	if g.Enabled() {
		t.Error("Gate should be disabled after Disable()")
	}
	if !g.Passes(0) {
		t.Error("Disabled gate should pass silence")
	}

	g.Enable()
	g.Enable() // Multiple calls should be idempotent
	if !g.Enabled() {
		t.Error("Gate should remain enabled after multiple Enable()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	g := NewGate(0)
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.input, 'f', -1, 64), func(t *testing.T) {
			g.SetThreshold(tt.input)
			if got := g.Threshold(); got != tt.expected {
				t.Errorf("SetThreshold(%v): got %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGatePasses(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		magnitude float64
		want      bool
	}{
		{"Silence with zero threshold", 0, 0, false},
		{"Tiny signal with zero threshold", 0, 1e-12, true},
		{"At threshold", 0.05, 0.05, false},
		{"Below threshold", 0.05, 0.01, false},
		{"Above threshold", 0.05, 0.2, true},
		{"Loud bin", 1, 13.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewGate(tt.threshold).Passes(tt.magnitude); got != tt.want {
				t.Errorf("Passes(%v) with threshold %v = %t, want %t", tt.magnitude, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestGatePassesNoAllocs(t *testing.T) {
	g := NewGate(0.05)
	mags := make([]float64, 735)
	for i := range mags {
		mags[i] = float64(i%10) / 10
	}

	allocs := testing.AllocsPerRun(100, func() {
		n := 0
		for _, m := range mags {
			if g.Passes(m) {
				n++
			}
		}
		_ = n
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in gate check, got %.1f", allocs)
	}
}
