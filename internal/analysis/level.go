// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"termvis/internal/audio"
)

// RMS calculates the Root Mean Square level of one channel of the buffer.
func RMS(buf audio.Buffer, ch audio.Channel) float64 {
	if len(buf) == 0 {
		return 0.0
	}

	var sumSquare float64
	for _, f := range buf {
		s := float64(f.Sample(ch))
		sumSquare += s * s
	}

	return math.Sqrt(sumSquare / float64(len(buf)))
}

// Decibels converts a linear level to dBFS, floored at -96 dB.
func Decibels(level float64) float64 {
	const floor = -96.0
	if level <= 0 {
		return floor
	}
	return max(20*math.Log10(level), floor)
}
