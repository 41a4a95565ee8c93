// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BytesPerFrame is the size of one interleaved stereo F32LE frame on the wire.
const BytesPerFrame = 8

// Channel selects one side of a stereo frame.
type Channel int

const (
	Left Channel = iota
	Right
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// SampleFrame is one instant of stereo audio.
type SampleFrame struct {
	Left  float32
	Right float32
}

// Sample returns the amplitude of the given channel.
func (f SampleFrame) Sample(ch Channel) float32 {
	if ch == Right {
		return f.Right
	}
	return f.Left
}

// String formats the frame as "(l, r)".
func (f SampleFrame) String() string {
	return fmt.Sprintf("(%g, %g)", f.Left, f.Right)
}

// Buffer is a fixed-length run of frames captured in one read.
type Buffer []SampleFrame

// NewBuffer allocates a buffer of n frames.
func NewBuffer(n int) Buffer {
	return make(Buffer, n)
}

// ChannelInto copies one channel of the buffer into dst as float64 and
// returns the number of samples written.
func (b Buffer) ChannelInto(dst []float64, ch Channel) int {
	n := min(len(dst), len(b))
	for i := range n {
		dst[i] = float64(b[i].Sample(ch))
	}
	return n
}

// DecodeFrames decodes interleaved little-endian float32 pairs from raw into
// dst. raw must hold exactly len(dst)*BytesPerFrame bytes.
func DecodeFrames(dst Buffer, raw []byte) error {
	if len(raw) != len(dst)*BytesPerFrame {
		return fmt.Errorf("%w: %d bytes for %d frames", ErrFormatMismatch, len(raw), len(dst))
	}
	for i := range dst {
		off := i * BytesPerFrame
		dst[i] = SampleFrame{
			Left:  math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])),
			Right: math.Float32frombits(binary.LittleEndian.Uint32(raw[off+4:])),
		}
	}
	return nil
}

// EncodeSamples writes interleaved float32 samples to dst as little-endian
// bytes. dst must hold at least 4*len(samples) bytes; it returns the number of
// bytes written.
func EncodeSamples(dst []byte, samples []float32) int {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
	return len(samples) * 4
}
