// SPDX-License-Identifier: MIT
/*
Package audio implements the capture side of the visualizer:
- SampleFrame and Buffer, the unit of audio data
- Capture, which turns a raw stereo F32LE byte stream into Buffers
- Sources for PortAudio devices, raw pipes and replayed files

Capture is not safe for concurrent use. It is owned by the render loop, and
the Buffer it returns is rewritten in place by the next ReadFrame call.
*/
package audio

import (
	"errors"
	"fmt"
	"io"
	"time"

	applog "termvis/internal/log"
)

// Capture pulls exactly one buffer of frames per call from a Source.
type Capture struct {
	src        Source
	format     Format
	latestOnly bool

	// Pre-allocated, reused every tick.
	raw    []byte
	frames Buffer
}

// NewCapture validates that src produces want and pre-allocates a buffer of
// frames frames. When latestOnly is set and src can flush, queued audio is
// discarded after each read so the display never lags behind the device.
func NewCapture(src Source, want Format, frames int, latestOnly bool) (*Capture, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("capture buffer must hold at least one frame, got %d", frames)
	}
	got := src.Format()
	if got.Channels != want.Channels || got.Encoding != want.Encoding || got.SampleRate != want.SampleRate {
		return nil, captureErr(ErrFormatMismatch, fmt.Errorf("source is %s, want %s", got, want))
	}
	if want.Channels != 2 || want.Encoding != F32LE {
		return nil, captureErr(ErrFormatMismatch, fmt.Errorf("only stereo %s is supported, got %s", F32LE, want))
	}

	applog.Debugf("Capture: %d frames per read (%s, latest only: %t)", frames, want, latestOnly)

	return &Capture{
		src:        src,
		format:     want,
		latestOnly: latestOnly,
		raw:        make([]byte, frames*BytesPerFrame),
		frames:     NewBuffer(frames),
	}, nil
}

// Frames returns the fixed number of frames per read.
func (c *Capture) Frames() int {
	return len(c.frames)
}

// Format returns the validated capture format.
func (c *Capture) Format() Format {
	return c.format
}

// ReadFrame blocks until a full buffer was read and decoded. The returned
// Buffer is only valid until the next call.
func (c *Capture) ReadFrame() (Buffer, error) {
	n, err := io.ReadFull(c.src, c.raw)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && n == 0:
		return nil, captureErr(ErrEndOfStream, nil)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, captureErr(ErrUnderrun, fmt.Errorf("got %d of %d bytes", n, len(c.raw)))
	default:
		return nil, captureErr(ErrDeviceUnavailable, err)
	}

	if err := DecodeFrames(c.frames, c.raw); err != nil {
		return nil, captureErr(ErrFormatMismatch, err)
	}

	if c.latestOnly {
		if f, ok := c.src.(Flusher); ok {
			if err := f.Flush(); err != nil {
				return nil, captureErr(ErrDeviceUnavailable, fmt.Errorf("flush: %w", err))
			}
		}
	}

	return c.frames, nil
}

// Latency reports the source's input latency when it is known.
func (c *Capture) Latency() (time.Duration, bool) {
	if lr, ok := c.src.(LatencyReporter); ok {
		return lr.Latency(), true
	}
	return 0, false
}

// Close closes the underlying source.
func (c *Capture) Close() error {
	return c.src.Close()
}
