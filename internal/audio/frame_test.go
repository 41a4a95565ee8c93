// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func encodeFrames(frames ...SampleFrame) []byte {
	raw := make([]byte, len(frames)*BytesPerFrame)
	for i, f := range frames {
		binary.LittleEndian.PutUint32(raw[i*8:], math.Float32bits(f.Left))
		binary.LittleEndian.PutUint32(raw[i*8+4:], math.Float32bits(f.Right))
	}
	return raw
}

func TestDecodeFrames(t *testing.T) {
	want := []SampleFrame{{0, 0}, {0.5, -0.5}, {1, -1}, {-0.25, 0.75}}
	raw := encodeFrames(want...)

	buf := NewBuffer(len(want))
	if err := DecodeFrames(buf, raw); err != nil {
		t.Fatalf("DecodeFrames() error = %v", err)
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("frame %d = %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestDecodeFramesLengthMismatch(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		bytes  int
	}{
		{"Short", 4, 31},
		{"Long", 4, 33},
		{"Half frame", 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecodeFrames(NewBuffer(tt.frames), make([]byte, tt.bytes))
			if !errors.Is(err, ErrFormatMismatch) {
				t.Errorf("DecodeFrames() error = %v, want ErrFormatMismatch", err)
			}
		})
	}
}

func TestEncodeSamplesRoundTrip(t *testing.T) {
	samples := []float32{0.1, -0.2, 0.3, -0.4}
	raw := make([]byte, len(samples)*4)
	if n := EncodeSamples(raw, samples); n != len(raw) {
		t.Fatalf("EncodeSamples() = %d, want %d", n, len(raw))
	}

	buf := NewBuffer(2)
	if err := DecodeFrames(buf, raw); err != nil {
		t.Fatalf("DecodeFrames() error = %v", err)
	}
	if buf[0] != (SampleFrame{0.1, -0.2}) || buf[1] != (SampleFrame{0.3, -0.4}) {
		t.Errorf("decoded %v", buf)
	}
}

func TestChannelInto(t *testing.T) {
	buf := Buffer{{1, -1}, {0.5, -0.5}, {0.25, -0.25}}
	dst := make([]float64, 2)

	if n := buf.ChannelInto(dst, Right); n != 2 {
		t.Fatalf("ChannelInto() = %d, want 2", n)
	}
	if dst[0] != -1 || dst[1] != -0.5 {
		t.Errorf("right channel = %v", dst)
	}
}

func TestSampleFrameString(t *testing.T) {
	if got := (SampleFrame{0.5, -1}).String(); got != "(0.5, -1)" {
		t.Errorf("String() = %q", got)
	}
	if Left.String() != "left" || Right.String() != "right" {
		t.Errorf("channel names = %s, %s", Left, Right)
	}
}

func TestDecodeFramesNoAllocs(t *testing.T) {
	raw := make([]byte, 735*BytesPerFrame)
	buf := NewBuffer(735)

	allocs := testing.AllocsPerRun(100, func() {
		_ = DecodeFrames(buf, raw)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in DecodeFrames, got %.1f", allocs)
	}
}

func BenchmarkDecodeFrames(b *testing.B) {
	raw := make([]byte, 735*BytesPerFrame)
	buf := NewBuffer(735)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_ = DecodeFrames(buf, raw)
	}
}
