// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	applog "termvis/internal/log"
)

// sampleDecoder yields interleaved stereo float32 samples in [-1, 1].
// It returns 0, io.EOF once the stream is exhausted.
type sampleDecoder interface {
	ReadSamples(dst []float32) (int, error)
}

// FileSource replays a decoded audio file as a stereo F32LE Source.
type FileSource struct {
	file   *os.File
	dec    sampleDecoder
	format Format

	samples []float32
	encoded []byte
	pending []byte
}

// OpenFile opens a .wav, .mp3, .ogg or .flac file for replay. Only stereo files are
// accepted. The returned Source runs as fast as it is read; wrap it with
// Paced to replay in real time.
func OpenFile(path string) (*FileSource, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".mp3", ".ogg", ".flac":
	default:
		return nil, captureErr(ErrUnsupportedFile, fmt.Errorf("%q", ext))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, captureErr(ErrDeviceUnavailable, err)
	}

	var (
		dec      sampleDecoder
		rate     int
		channels int
	)
	switch ext {
	case ".wav":
		dec, rate, channels, err = newWAVDecoder(f)
	case ".mp3":
		dec, rate, channels, err = newMP3Decoder(f)
	case ".ogg":
		dec, rate, channels, err = newOggDecoder(f)
	case ".flac":
		dec, rate, channels, err = newFLACDecoder(f)
	}
	if err != nil {
		f.Close()
		return nil, captureErr(ErrUnsupportedFile, fmt.Errorf("%s: %w", path, err))
	}
	if channels != 2 {
		f.Close()
		return nil, captureErr(ErrFormatMismatch, fmt.Errorf("%s has %d channels, want 2", path, channels))
	}

	applog.Infof("Replaying %s (%d Hz)", path, rate)

	const chunk = 4096
	return &FileSource{
		file:    f,
		dec:     dec,
		format:  StereoFloat(float64(rate)),
		samples: make([]float32, chunk),
		encoded: make([]byte, chunk*4),
	}, nil
}

func (s *FileSource) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		n, err := s.dec.ReadSamples(s.samples)
		if n == 0 {
			if err == nil {
				err = io.EOF
			}
			return 0, err
		}
		s.pending = s.encoded[:EncodeSamples(s.encoded, s.samples[:n])]
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *FileSource) Format() Format { return s.format }

func (s *FileSource) Close() error { return s.file.Close() }

// wavDecoder normalises integer PCM of any bit depth to float32.
type wavDecoder struct {
	dec   *wav.Decoder
	buf   *goaudio.IntBuffer
	scale float32
	// 8-bit WAV is unsigned.
	offset int
}

func newWAVDecoder(r io.ReadSeeker) (sampleDecoder, int, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, 0, 0, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	if dec.WavAudioFormat != 1 {
		return nil, 0, 0, fmt.Errorf("WAV format %d is not integer PCM", dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, 0, 0, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	d := &wavDecoder{
		dec:   dec,
		scale: float32(int64(1) << (bitDepth - 1)),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: int(dec.NumChans), SampleRate: int(dec.SampleRate)},
		},
	}
	if bitDepth == 8 {
		d.offset = 128
	}
	return d, int(dec.SampleRate), int(dec.NumChans), nil
}

func (d *wavDecoder) ReadSamples(dst []float32) (int, error) {
	if cap(d.buf.Data) < len(dst) {
		d.buf.Data = make([]int, len(dst))
	}
	d.buf.Data = d.buf.Data[:len(dst)]

	n, err := d.dec.PCMBuffer(d.buf)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	for i, v := range d.buf.Data[:n] {
		dst[i] = float32(v-d.offset) / d.scale
	}
	return n, nil
}

// mp3Decoder converts go-mp3's 16-bit little-endian stereo output.
type mp3Decoder struct {
	dec *mp3.Decoder
	buf []byte
}

func newMP3Decoder(r io.Reader) (sampleDecoder, int, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, 0, err
	}
	// go-mp3 always decodes to stereo.
	return &mp3Decoder{dec: dec}, dec.SampleRate(), 2, nil
}

func (d *mp3Decoder) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(d.buf) < need {
		d.buf = make([]byte, need)
	}
	d.buf = d.buf[:need]

	n, err := io.ReadFull(d.dec, d.buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	samples := n / 2
	if samples == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	for i := range samples {
		v := int16(uint16(d.buf[2*i]) | uint16(d.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}
	return samples, nil
}

// oggDecoder reads interleaved float32 straight from the Vorbis decoder.
type oggDecoder struct {
	dec *oggvorbis.Reader
}

func newOggDecoder(r io.Reader) (sampleDecoder, int, int, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, 0, 0, err
	}
	return &oggDecoder{dec: dec}, dec.SampleRate(), dec.Channels(), nil
}

func (d *oggDecoder) ReadSamples(dst []float32) (int, error) {
	// Keep whole frames so channels never swap between reads.
	dst = dst[:len(dst)-len(dst)%2]
	n, err := d.dec.Read(dst)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	return n, nil
}

// flacDecoder interleaves FLAC subframes. A frame holds thousands of
// samples, so the unread rest is kept for the next call.
type flacDecoder struct {
	stream  *flac.Stream
	scale   float32
	pending []float32
}

func newFLACDecoder(r io.Reader) (sampleDecoder, int, int, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, 0, 0, err
	}
	info := stream.Info
	if info.BitsPerSample < 4 || info.BitsPerSample > 32 {
		return nil, 0, 0, fmt.Errorf("unsupported FLAC bit depth %d", info.BitsPerSample)
	}
	d := &flacDecoder{
		stream: stream,
		scale:  float32(int64(1) << (info.BitsPerSample - 1)),
	}
	return d, int(info.SampleRate), int(info.NChannels), nil
}

func (d *flacDecoder) ReadSamples(dst []float32) (int, error) {
	if len(d.pending) == 0 {
		frame, err := d.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		left, right := frame.Subframes[0].Samples, frame.Subframes[1].Samples
		d.pending = d.pending[:0]
		for i := range left {
			d.pending = append(d.pending, float32(left[i])/d.scale, float32(right[i])/d.scale)
		}
	}
	n := copy(dst[:len(dst)-len(dst)%2], d.pending)
	d.pending = d.pending[n:]
	return n, nil
}
