// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Encoding names the on-the-wire sample encoding of a Source.
type Encoding string

// F32LE is the only encoding the capture adapter accepts.
const F32LE Encoding = "f32le"

// Format describes the byte stream a Source produces.
type Format struct {
	Channels   int
	SampleRate float64
	Encoding   Encoding
}

// StereoFloat returns the stereo F32LE format at the given rate.
func StereoFloat(sampleRate float64) Format {
	return Format{Channels: 2, SampleRate: sampleRate, Encoding: F32LE}
}

func (f Format) String() string {
	return fmt.Sprintf("%dch %s @ %.0f Hz", f.Channels, f.Encoding, f.SampleRate)
}

// Source is the raw capture boundary: a blocking reader of interleaved stereo
// F32LE bytes.
type Source interface {
	io.Reader
	Format() Format
	Close() error
}

// Flusher is implemented by sources that can drop queued, unread audio.
type Flusher interface {
	Flush() error
}

// LatencyReporter is implemented by sources that know their input latency.
type LatencyReporter interface {
	Latency() time.Duration
}

// RawSource wraps a reader that already yields stereo F32LE bytes, such as
// `parec --raw --format=float32le --channels=2` piped into stdin.
type RawSource struct {
	r      io.Reader
	format Format
}

// NewRawSource returns a Source reading from r, which is trusted to produce
// data in the given format.
func NewRawSource(r io.Reader, format Format) *RawSource {
	return &RawSource{r: r, format: format}
}

func (s *RawSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *RawSource) Format() Format             { return s.format }

// Close closes the underlying reader when it is an io.Closer.
func (s *RawSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// PacedSource throttles a non-realtime Source so that each chunk of
// bytesPerTick bytes becomes available one interval after the previous one.
// It never skips or catches up; it only waits.
type PacedSource struct {
	Source
	bytesPerTick int
	interval     time.Duration

	mu        sync.Mutex
	remaining int
	ticker    *time.Ticker
}

// Paced wraps src. interval <= 0 or bytesPerTick <= 0 disables pacing.
func Paced(src Source, bytesPerTick int, interval time.Duration) *PacedSource {
	return &PacedSource{Source: src, bytesPerTick: bytesPerTick, interval: interval}
}

func (s *PacedSource) Read(p []byte) (int, error) {
	if s.interval <= 0 || s.bytesPerTick <= 0 {
		return s.Source.Read(p)
	}

	s.mu.Lock()
	if s.remaining == 0 {
		if s.ticker == nil {
			// The first chunk is released immediately.
			s.ticker = time.NewTicker(s.interval)
		} else {
			<-s.ticker.C
		}
		s.remaining = s.bytesPerTick
	}
	if len(p) > s.remaining {
		p = p[:s.remaining]
	}
	s.mu.Unlock()

	n, err := s.Source.Read(p)

	s.mu.Lock()
	s.remaining -= n
	s.mu.Unlock()
	return n, err
}

// Close stops the pacing ticker and closes the wrapped source.
func (s *PacedSource) Close() error {
	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.mu.Unlock()
	return s.Source.Close()
}
