// SPDX-License-Identifier: MIT
package analysis

import "termvis/internal/audio"

// SpectrumAnalyzer is what the render pipeline needs from a spectral
// analyzer. Implementations are owned by a single goroutine.
type SpectrumAnalyzer interface {
	// AnalyzeInto overwrites dst with the spectrum of one channel of buf.
	AnalyzeInto(dst *Spectrum, buf audio.Buffer, ch audio.Channel)
	// FrequencyForBin returns the center frequency (Hz) for a given bin index.
	FrequencyForBin(binIndex int) float64
	// Peak returns the strongest meaningful bin and its frequency.
	Peak(s Spectrum) (int, float64)
	// Size returns the number of bins, equal to the buffer length.
	Size() int
}
