// SPDX-License-Identifier: MIT

// Package audiotest provides signal generators and fakes shared by tests.
package audiotest

import (
	"math"

	"termvis/internal/audio"
)

func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
		buffer[i] = signal * 0.9
	}
	return buffer
}

func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}

// Stereo builds a buffer from per-channel samples. A nil channel is silent;
// the shorter channel is zero-padded.
func Stereo(left, right []float64) audio.Buffer {
	buf := audio.NewBuffer(max(len(left), len(right)))
	for i := range buf {
		if i < len(left) {
			buf[i].Left = float32(left[i])
		}
		if i < len(right) {
			buf[i].Right = float32(right[i])
		}
	}
	return buf
}

// Encode serialises a buffer to interleaved little-endian float32 bytes.
func Encode(buf audio.Buffer) []byte {
	samples := make([]float32, 0, len(buf)*2)
	for _, f := range buf {
		samples = append(samples, f.Left, f.Right)
	}
	raw := make([]byte, len(samples)*4)
	audio.EncodeSamples(raw, samples)
	return raw
}

// FrameScript is a frame reader that replays fixed buffers and then fails
// with Err (audio.ErrEndOfStream wrapped in a CaptureError when Err is nil).
type FrameScript struct {
	Buffers []audio.Buffer
	Err     error
	Reads   int
}

func (s *FrameScript) ReadFrame() (audio.Buffer, error) {
	if s.Reads < len(s.Buffers) {
		buf := s.Buffers[s.Reads]
		s.Reads++
		return buf, nil
	}
	s.Reads++
	if s.Err != nil {
		return nil, s.Err
	}
	return nil, &audio.CaptureError{Kind: audio.ErrEndOfStream}
}
