// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"time"

	"github.com/gordonklaus/portaudio"

	applog "termvis/internal/log"
)

// PortAudioSource captures stereo float32 audio from a PortAudio input device
// using a blocking stream.
type PortAudioSource struct {
	device  *portaudio.DeviceInfo
	stream  *portaudio.Stream
	format  Format
	frames  int
	latency time.Duration

	// Pre-allocated, reused every read.
	samples []float32
	encoded []byte
	pending []byte
}

// OpenPortAudio opens and starts a blocking input stream on deviceID. PortAudio
// must already be initialized.
func OpenPortAudio(deviceID int, sampleRate float64, frames int, lowLatency bool) (*PortAudioSource, error) {
	device, err := InputDevice(deviceID)
	if err != nil {
		return nil, captureErr(ErrDeviceUnavailable, err)
	}
	if device.MaxInputChannels < 2 {
		return nil, captureErr(ErrFormatMismatch, errors.New(device.Name+" has fewer than two input channels"))
	}

	s := &PortAudioSource{
		device:  device,
		format:  StereoFloat(sampleRate),
		frames:  frames,
		samples: make([]float32, frames*2),
		encoded: make([]byte, frames*BytesPerFrame),
	}

	latency := device.DefaultHighInputLatency
	if lowLatency {
		latency = device.DefaultLowInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 2,
			Device:   device,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: frames,
		SampleRate:      sampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.samples)
	if err != nil {
		return nil, captureErr(ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, captureErr(ErrDeviceUnavailable, err)
	}
	s.stream = stream
	s.latency = stream.Info().InputLatency

	applog.Infof("Capturing from %s (%s, latency %v)", device.Name, s.format, s.latency)

	return s, nil
}

// Read fills p from the most recent device buffer, blocking on the stream
// when nothing is pending.
func (s *PortAudioSource) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		if err := s.readStream(); err != nil {
			return 0, err
		}
		n := EncodeSamples(s.encoded, s.samples)
		s.pending = s.encoded[:n]
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *PortAudioSource) readStream() error {
	err := s.stream.Read()
	if errors.Is(err, portaudio.InputOverflowed) {
		// Samples were lost, but the buffer is still valid.
		applog.Warnf("PortAudio: input overflowed")
		return nil
	}
	return err
}

// Flush discards every full device buffer queued behind the current one.
func (s *PortAudioSource) Flush() error {
	s.pending = nil
	for {
		avail, err := s.stream.AvailableToRead()
		if err != nil {
			return err
		}
		if avail < s.frames {
			return nil
		}
		if err := s.readStream(); err != nil {
			return err
		}
	}
}

// Latency returns the input latency reported by the opened stream.
func (s *PortAudioSource) Latency() time.Duration { return s.latency }

func (s *PortAudioSource) Format() Format { return s.format }

// Close stops and closes the stream.
func (s *PortAudioSource) Close() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		s.stream = nil
		return err
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}
