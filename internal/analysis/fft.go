// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"termvis/internal/audio"
	applog "termvis/internal/log"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions. Rectangular leaves samples untouched.
const (
	Rectangular WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

var windowNames = [...]string{
	Rectangular:     "none",
	BartlettHann:    "bartletthann",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	Hann:            "hann",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
}

func (w WindowFunc) String() string {
	if w < 0 || int(w) >= len(windowNames) {
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
	return windowNames[w]
}

// Spectrum holds one complex bin per time-domain sample, split into
// magnitude and phase.
type Spectrum struct {
	Magnitude []float64
	Phase     []float64
}

// NewSpectrum allocates a spectrum of n bins.
func NewSpectrum(n int) Spectrum {
	return Spectrum{Magnitude: make([]float64, n), Phase: make([]float64, n)}
}

// Len returns the number of bins.
func (s Spectrum) Len() int { return len(s.Magnitude) }

// Analyzer computes the forward DFT of one channel of a capture buffer.
// The transform plan and its workspace are built once for a fixed buffer
// length and reused. Analyzer is not safe for concurrent use.
type Analyzer struct {
	plan       *fourier.CmplxFFT
	size       int
	sampleRate float64
	windowType WindowFunc
	window     []float64 // nil for Rectangular
	norm       float64

	// Pre-allocated, rewritten on every call.
	input  []complex128
	output []complex128
}

// Compile-time check.
var _ SpectrumAnalyzer = (*Analyzer)(nil)

// NewAnalyzer builds an analyzer for buffers of exactly bufferLen frames.
func NewAnalyzer(bufferLen int, sampleRate float64, windowType WindowFunc) (*Analyzer, error) {
	if bufferLen < 1 {
		return nil, fmt.Errorf("analysis buffer length must be positive, got %d", bufferLen)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	a := &Analyzer{
		plan:       fourier.NewCmplxFFT(bufferLen),
		size:       bufferLen,
		sampleRate: sampleRate,
		windowType: windowType,
		norm:       1 / math.Sqrt(float64(bufferLen)),
		input:      make([]complex128, bufferLen),
		output:     make([]complex128, bufferLen),
	}
	if windowType != Rectangular {
		a.window = make([]float64, bufferLen)
		applyWindow(a.window, windowType)
	}

	applog.Infof("Analysis: Initializing Analyzer (Size: %d, SampleRate: %.1f Hz, Window: %v)", bufferLen, sampleRate, windowType)

	return a, nil
}

// Analyze returns a freshly allocated spectrum of one channel of buf.
func (a *Analyzer) Analyze(buf audio.Buffer, ch audio.Channel) Spectrum {
	s := NewSpectrum(a.size)
	a.AnalyzeInto(&s, buf, ch)
	return s
}

// AnalyzeInto computes the spectrum of one channel of buf into dst, which
// must have been allocated with NewSpectrum(a.Size()). Bin k has magnitude
// |X[k]|/sqrt(N). It panics if buf or dst do not match the plan's length.
func (a *Analyzer) AnalyzeInto(dst *Spectrum, buf audio.Buffer, ch audio.Channel) {
	if len(buf) != a.size {
		panic(fmt.Sprintf("analysis: buffer has %d frames, plan expects %d", len(buf), a.size))
	}
	if len(dst.Magnitude) != a.size || len(dst.Phase) != a.size {
		panic(fmt.Sprintf("analysis: spectrum has %d bins, plan expects %d", len(dst.Magnitude), a.size))
	}

	for i, f := range buf {
		v := float64(f.Sample(ch))
		if a.window != nil {
			v *= a.window[i]
		}
		a.input[i] = complex(v, 0)
	}

	a.plan.Coefficients(a.output, a.input)

	for k, c := range a.output {
		dst.Magnitude[k] = cmplx.Abs(c) * a.norm
		dst.Phase[k] = cmplx.Phase(c)
	}
}

// FrequencyForBin returns the center frequency (Hz) for a given bin index,
// or 0 for an index outside the spectrum.
func (a *Analyzer) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= a.size {
		return 0.0
	}
	return float64(binIndex) * (a.sampleRate / float64(a.size))
}

// Size returns the transform length, equal to the buffer length.
func (a *Analyzer) Size() int {
	return a.size
}

// SampleRate returns the configured sample rate (Hz).
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}

// Window returns the configured window function.
func (a *Analyzer) Window() WindowFunc {
	return a.windowType
}

// Peak returns the strongest bin in 1..N/2 and its frequency. DC is skipped.
// It returns 0, 0 when the spectrum has no meaningful bins.
func (a *Analyzer) Peak(s Spectrum) (int, float64) {
	half := min(s.Len()-1, a.size/2)
	peakBin := 0
	peakValue := 0.0
	for k := 1; k <= half; k++ {
		if s.Magnitude[k] > peakValue {
			peakValue = s.Magnitude[k]
			peakBin = k
		}
	}
	return peakBin, a.FrequencyForBin(peakBin)
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Rectangular) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "", "none", "rectangular":
		return Rectangular, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Rectangular, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window's coefficients. Unknown
// types fall back to Hann.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// Window funcs scale in place, so start from ones.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Rectangular:
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		applog.Warnf("Analysis: Unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
