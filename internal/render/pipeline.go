// SPDX-License-Identifier: MIT

/*
Package render drives the visualizer. Once per tick the Pipeline:
- reads the grid extent fresh from the canvas
- reads one buffer from the capture adapter
- optionally computes the spectrum of both channels
- clears the grid and draws diagnostics, the waveform and the spectrum
- presents the grid and hands a copy of the tick's data to any taps

The pipeline is single-goroutine: the capture read is its only blocking
point, and a tick's buffers are never read after the next read starts.
*/
package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"termvis/internal/analysis"
	"termvis/internal/audio"
	"termvis/internal/canvas"
	applog "termvis/internal/log"
	"termvis/internal/transport"
)

// Canvas is the drawing surface. Implementations clip out-of-range
// coordinates themselves.
type Canvas interface {
	Clear()
	Width() int
	Height() int
	DrawPoint(x, y int, cell canvas.Cell)
	DrawLine(x0, y0, x1, y1 int, cell canvas.Cell)
	DrawText(x, y int, fg, bg canvas.Color, text string)
	Present() error
}

// FrameReader yields one fixed-length buffer per call, blocking until it is
// available. The buffer is only valid until the next call.
type FrameReader interface {
	ReadFrame() (audio.Buffer, error)
}

// LatencyReporter is optionally implemented by a FrameReader.
type LatencyReporter interface {
	Latency() (time.Duration, bool)
}

// State is the pipeline's lifecycle state.
type State int32

const (
	Idle State = iota
	Rendering
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config selects the visual layout. It replaces separate render loops per
// visual style.
type Config struct {
	SplitLayout     bool // Left channel on the left half, right on the right half.
	ShowSpectrum    bool // Spectrum in the bottom half of the grid.
	ShowDiagnostics bool

	// Waveform half-amplitude as a fraction of the waveform region height.
	AmplitudeScale float64
	// Bins at or below this normalised magnitude are not drawn.
	MinSpectrumMagnitude float64
	// Normalised magnitude times SpectrumGain gives the bar height as a
	// fraction of its lane, capped at 1.
	SpectrumGain float64
}

// DefaultConfig returns the stacked waveform-only layout with diagnostics.
func DefaultConfig() Config {
	return Config{
		ShowDiagnostics:      true,
		AmplitudeScale:       0.25,
		MinSpectrumMagnitude: 0.05,
		SpectrumGain:         0.25,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case !(c.AmplitudeScale > 0 && c.AmplitudeScale <= 1):
		return fmt.Errorf("amplitude scale must be in (0, 1], got %g", c.AmplitudeScale)
	case !(c.MinSpectrumMagnitude >= 0 && c.MinSpectrumMagnitude <= 1):
		return fmt.Errorf("minimum spectrum magnitude must be in [0, 1], got %g", c.MinSpectrumMagnitude)
	case !(c.SpectrumGain > 0):
		return fmt.Errorf("spectrum gain must be positive, got %g", c.SpectrumGain)
	}
	return nil
}

// Palette.
var (
	leftWave  = canvas.Cell{Foreground: canvas.ColorWhite, Background: canvas.ColorBlue, Symbol: ' '}
	rightWave = canvas.Cell{Foreground: canvas.ColorWhite, Background: canvas.ColorRed, Symbol: ' '}
	leftBar   = canvas.Cell{Foreground: canvas.ColorWhite, Background: canvas.ColorNavy, Symbol: ' '}
	rightBar  = canvas.Cell{Foreground: canvas.ColorWhite, Background: canvas.ColorMaroon, Symbol: ' '}

	diagFg = canvas.ColorRed
	diagBg = canvas.ColorDefault
)

// tapPoints caps the decimated waveform handed to taps.
const tapPoints = 256

// Pipeline renders one capture buffer per tick.
type Pipeline struct {
	cfg      Config
	canvas   Canvas
	reader   FrameReader
	analyzer analysis.SpectrumAnalyzer
	gate     *analysis.Gate
	taps     []transport.Transport

	state atomic.Int32
	frame uint64

	// One spectrum per channel, rewritten in full every tick.
	spectra [2]analysis.Spectrum
}

// New builds a pipeline. analyzer may be nil unless cfg.ShowSpectrum is set.
// Taps receive a snapshot after every presented frame.
func New(cfg Config, cv Canvas, reader FrameReader, analyzer analysis.SpectrumAnalyzer, taps ...transport.Transport) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &SetupError{Component: "config", Err: err}
	}
	if cv == nil {
		return nil, &SetupError{Component: "canvas", Err: errors.New("no canvas")}
	}
	if reader == nil {
		return nil, &SetupError{Component: "capture", Err: errors.New("no capture source")}
	}
	if cfg.ShowSpectrum && analyzer == nil {
		return nil, &SetupError{Component: "analyzer", Err: errors.New("spectrum enabled without an analyzer")}
	}

	p := &Pipeline{
		cfg:    cfg,
		canvas: cv,
		reader: reader,
		gate:   analysis.NewGate(cfg.MinSpectrumMagnitude),
		taps:   taps,
	}
	if cfg.ShowSpectrum {
		p.analyzer = analyzer
		p.spectra[audio.Left] = analysis.NewSpectrum(analyzer.Size())
		p.spectra[audio.Right] = analysis.NewSpectrum(analyzer.Size())
	}
	return p, nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Frames returns the number of buffers read so far.
func (p *Pipeline) Frames() uint64 {
	return p.frame
}

// Run ticks until ctx is cancelled, the source ends or an error occurs.
// Cancellation is observed between ticks; a tick blocked in its capture read
// finishes first. A cancelled context and the end of a finite source both
// return nil.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(Idle), int32(Rendering)) {
		return fmt.Errorf("render: pipeline is %s", p.State())
	}
	defer p.state.Store(int32(Terminated))

	applog.Infof("Render: started (split: %t, spectrum: %t, diagnostics: %t)",
		p.cfg.SplitLayout, p.cfg.ShowSpectrum, p.cfg.ShowDiagnostics)

	for {
		select {
		case <-ctx.Done():
			applog.Infof("Render: stopped after %d frames", p.frame)
			return nil
		default:
		}

		if err := p.Tick(); err != nil {
			if errors.Is(err, audio.ErrEndOfStream) {
				applog.Infof("Render: source ended after %d frames", p.frame)
				return nil
			}
			return err
		}
	}
}

// Tick renders a single frame. A capture failure returns before anything is
// drawn; a present failure is returned as *RenderError.
func (p *Pipeline) Tick() error {
	w, h := p.canvas.Width(), p.canvas.Height()

	buf, err := p.reader.ReadFrame()
	if err != nil {
		return err
	}
	p.frame++

	if p.analyzer != nil {
		p.analyzer.AnalyzeInto(&p.spectra[audio.Left], buf, audio.Left)
		p.analyzer.AnalyzeInto(&p.spectra[audio.Right], buf, audio.Right)
	}

	p.canvas.Clear()

	if p.cfg.ShowDiagnostics {
		p.drawDiagnostics(buf)
	}

	waveH := h
	if p.analyzer != nil {
		waveH = h / 2
	}
	p.drawWaveform(buf, w, 0, waveH)

	if p.analyzer != nil {
		p.drawSpectrum(w, waveH, h-waveH)
	}

	if err := p.canvas.Present(); err != nil {
		return &RenderError{Err: err}
	}

	p.publish(buf)
	return nil
}

func (p *Pipeline) drawDiagnostics(buf audio.Buffer) {
	p.canvas.DrawText(0, 0, diagFg, diagBg, strconv.FormatUint(p.frame, 10))

	first := audio.SampleFrame{}
	if len(buf) > 0 {
		first = buf[0]
	}
	p.canvas.DrawText(2, 2, diagFg, diagBg, fmt.Sprintf("Sample Len: %d -- %s", len(buf), first))

	row := 3
	if lr, ok := p.reader.(LatencyReporter); ok {
		if latency, ok := lr.Latency(); ok {
			p.canvas.DrawText(2, row, diagFg, diagBg, "Latency: "+latency.Round(100*time.Microsecond).String())
			row++
		}
	}

	p.canvas.DrawText(2, row, diagFg, diagBg, fmt.Sprintf("RMS L %.1f dB  R %.1f dB",
		analysis.Decibels(analysis.RMS(buf, audio.Left)),
		analysis.Decibels(analysis.RMS(buf, audio.Right))))
	row++

	if p.analyzer != nil {
		_, freq := p.analyzer.Peak(p.spectra[audio.Left])
		p.canvas.DrawText(2, row, diagFg, diagBg, fmt.Sprintf("Peak: %.0f Hz", freq))
	}
}

// drawWaveform draws both channels into rows [top, top+regionH).
func (p *Pipeline) drawWaveform(buf audio.Buffer, w, top, regionH int) {
	if p.cfg.SplitLayout {
		half := w / 2
		center := top + regionH/2
		p.drawChannel(buf, audio.Left, 0, half, center, regionH, leftWave)
		p.drawChannel(buf, audio.Right, half, w-half, center, regionH, rightWave)
		return
	}
	p.drawChannel(buf, audio.Left, 0, w, top+regionH/2-regionH/4, regionH, leftWave)
	p.drawChannel(buf, audio.Right, 0, w, top+regionH/2+regionH/4, regionH, rightWave)
}

// drawChannel draws one vertical segment per column between the samples at
// idx and Next(idx).
func (p *Pipeline) drawChannel(buf audio.Buffer, ch audio.Channel, x0, extent, center, regionH int, cell canvas.Cell) {
	n := len(buf)
	stride := Stride(n, extent)
	scale := p.cfg.AmplitudeScale * float64(regionH)

	for c := range Columns(n, extent, stride) {
		idx := Index(c, stride)
		y0 := center + amplitudeOffset(buf[idx].Sample(ch), scale)
		y1 := center + amplitudeOffset(buf[Next(idx, stride, n)].Sample(ch), scale)
		if y0 == y1 {
			p.canvas.DrawPoint(x0+c, y0, cell)
		} else {
			p.canvas.DrawLine(x0+c, y0, x0+c, y1, cell)
		}
	}
}

// drawSpectrum draws magnitude bars into rows [top, top+regionH).
func (p *Pipeline) drawSpectrum(w, top, regionH int) {
	left, right := &p.spectra[audio.Left], &p.spectra[audio.Right]
	if p.cfg.SplitLayout {
		half := w / 2
		baseline := top + regionH - 1
		p.drawBars(left, 0, half, baseline, regionH, leftBar)
		p.drawBars(right, half, w-half, baseline, regionH, rightBar)
		return
	}
	laneH := regionH / 2
	p.drawBars(left, 0, w, top+laneH-1, laneH, leftBar)
	p.drawBars(right, 0, w, top+regionH-1, regionH-laneH, rightBar)
}

// drawBars maps bins 0..N/2 onto extent columns. Only half the spectrum is
// meaningful, so the stride is computed against twice the extent.
func (p *Pipeline) drawBars(s *analysis.Spectrum, x0, extent, baseline, laneH int, cell canvas.Cell) {
	if laneH < 1 {
		return
	}
	n := s.Len()
	stride := Stride(n, 2*extent)

	for c := range Columns(n/2+1, extent, stride) {
		mag := s.Magnitude[Index(c, stride)]
		if !p.gate.Passes(mag) {
			continue
		}
		height := int(clamp(mag*p.cfg.SpectrumGain, 0, 1) * float64(laneH-1))
		if height == 0 {
			p.canvas.DrawPoint(x0+c, baseline, cell)
		} else {
			p.canvas.DrawLine(x0+c, baseline, x0+c, baseline-height, cell)
		}
	}
}

// publish hands a copy of this tick's data to every tap.
func (p *Pipeline) publish(buf audio.Buffer) {
	if len(p.taps) == 0 {
		return
	}

	n := len(buf)
	stride := Stride(n, tapPoints)
	cols := Columns(n, tapPoints, stride)
	frame := transport.Frame{
		Seq:       p.frame,
		Timestamp: time.Now().UnixNano(),
		Left:      make([]float32, cols),
		Right:     make([]float32, cols),
	}
	for c := range cols {
		f := buf[Index(c, stride)]
		frame.Left[c], frame.Right[c] = f.Left, f.Right
	}

	if p.analyzer != nil {
		bins := p.analyzer.Size()/2 + 1
		frame.SpectrumLeft = toFloat32(p.spectra[audio.Left].Magnitude[:bins])
		frame.SpectrumRight = toFloat32(p.spectra[audio.Right].Magnitude[:bins])
		frame.BinHz = p.analyzer.FrequencyForBin(1)
	}

	for _, tap := range p.taps {
		if err := tap.Send(frame); err != nil {
			applog.Debugf("Render: tap send failed for frame %d: %v", frame.Seq, err)
		}
	}
}

// amplitudeOffset converts a sample to a row offset. Samples are clamped to
// [-1, 1], so the result never exceeds scale in magnitude.
func amplitudeOffset(sample float32, scale float64) int {
	s := float64(sample)
	if math.IsNaN(s) {
		return 0
	}
	return int(scale * clamp(s, -1, 1))
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

func toFloat32(src []float64) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = float32(v)
	}
	return dst
}
