// SPDX-License-Identifier: MIT
package analysis

// Gate suppresses near-silent spectrum bins. A disabled gate passes
// everything.
type Gate struct {
	enabled   bool
	threshold float64
}

// NewGate returns an enabled gate with the given threshold.
func NewGate(threshold float64) *Gate {
	g := &Gate{enabled: true}
	g.SetThreshold(threshold)
	return g
}

func (g *Gate) Enable()  { g.enabled = true }
func (g *Gate) Disable() { g.enabled = false }

// Enabled reports whether the gate is active.
func (g *Gate) Enabled() bool { return g.enabled }

// SetThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 where 0 only blocks silence.
func (g *Gate) SetThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	g.threshold = threshold
}

// Threshold returns the current gate threshold.
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// Passes reports whether a bin of the given magnitude should be drawn.
// Magnitudes at or below the threshold are blocked, so silence never passes.
func (g *Gate) Passes(magnitude float64) bool {
	return !g.enabled || magnitude > g.threshold
}
