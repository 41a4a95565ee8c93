// SPDX-License-Identifier: MIT
package transport

// Frame is a per-tick snapshot published to external consumers. It is a
// copy; the render loop never touches it after Send.
type Frame struct {
	Seq       uint64 `json:"seq"`
	Timestamp int64  `json:"timestamp"` // Nanoseconds since epoch.

	// Decimated waveform, one value per sampled column.
	Left  []float32 `json:"left"`
	Right []float32 `json:"right"`

	// Half-spectrum magnitudes (bins 0..N/2), empty when the spectrum is off.
	SpectrumLeft  []float32 `json:"spectrum_left,omitempty"`
	SpectrumRight []float32 `json:"spectrum_right,omitempty"`
	BinHz         float64   `json:"bin_hz,omitempty"`
}

// Transport defines a generic interface for publishing frames.
// Implementations must be thread-safe and Send must never block the caller.
type Transport interface {
	Send(frame Frame) error
	Close() error
}
