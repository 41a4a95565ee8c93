package config

import (
	"fmt"
	"time"

	"termvis/internal/analysis"
	"termvis/internal/render"
)

// Core configuration constants that define the boundaries and defaults
// for the visualizer.
const (
	// Capture sources.
	SourcePortAudio = "portaudio" // Live input device
	SourceStdin     = "stdin"     // Raw stereo F32LE on standard input
	SourceFile      = "file"      // Replayed WAV, MP3, Ogg Vorbis or FLAC file

	// Waveform layouts.
	LayoutStacked = "stacked" // Left lane above right lane, full width
	LayoutSplit   = "split"   // Left half and right half

	DefaultSource     = SourcePortAudio
	DefaultDeviceID   = MinDeviceID // System default input device
	DefaultSampleRate = 44100       // CD-quality audio
	DefaultFrameRate  = 60          // Buffers (and frames) per second
	DefaultLayout     = LayoutStacked
	DefaultFFTWindow  = "none" // Keeps the raw |X[k]|/sqrt(N) magnitudes
	DefaultLogLevel   = "info"

	DefaultWebSocketAddress = "127.0.0.1:8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxFrameRate  = 240
)

// Config is the complete runtime configuration, loaded from YAML and then
// overridden by environment variables and command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Debug logging plus a logging frame tap.
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn" or "error".
	LogFile   string          `yaml:"log_file"`  // Log destination while the terminal is attached; empty discards.
	Audio     AudioConfig     `yaml:"audio"`
	Render    RenderConfig    `yaml:"render"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig selects and tunes the capture source.
type AudioConfig struct {
	Source      string  `yaml:"source"`       // "portaudio", "stdin" or "file".
	InputDevice int     `yaml:"input_device"` // PortAudio device index (-1 for default).
	SampleRate  float64 `yaml:"sample_rate"`  // Ignored for files, which use their own rate.
	FrameRate   int     `yaml:"frame_rate"`   // Buffer length is sample_rate / frame_rate.
	LowLatency  bool    `yaml:"low_latency"`  // Request low latency settings from PortAudio.
	LatestOnly  bool    `yaml:"latest_only"`  // Drop queued device buffers after each read.
	File        string  `yaml:"file"`         // Path replayed when source is "file".
}

// RenderConfig selects the visual layout.
type RenderConfig struct {
	Layout               string  `yaml:"layout"` // "stacked" or "split".
	Spectrum             bool    `yaml:"spectrum"`
	Diagnostics          bool    `yaml:"diagnostics"`
	AmplitudeScale       float64 `yaml:"amplitude_scale"`
	MinSpectrumMagnitude float64 `yaml:"min_spectrum_magnitude"`
	SpectrumGain         float64 `yaml:"spectrum_gain"`
	FFTWindow            string  `yaml:"fft_window"` // e.g. "none", "hann", "hamming".
}

// TransportConfig holds the optional frame taps.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Broadcast frames as JSON to WebSocket clients.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address, e.g. "127.0.0.1:8080".
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send spectrum packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090".
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// NewConfig returns a Config holding the built-in defaults.
func NewConfig() *Config {
	defaults := render.DefaultConfig()
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Source:      DefaultSource,
			InputDevice: DefaultDeviceID,
			SampleRate:  DefaultSampleRate,
			FrameRate:   DefaultFrameRate,
			LatestOnly:  true,
		},
		Render: RenderConfig{
			Layout:               DefaultLayout,
			Spectrum:             defaults.ShowSpectrum,
			Diagnostics:          defaults.ShowDiagnostics,
			AmplitudeScale:       defaults.AmplitudeScale,
			MinSpectrumMagnitude: defaults.MinSpectrumMagnitude,
			SpectrumGain:         defaults.SpectrumGain,
			FFTWindow:            DefaultFFTWindow,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
	}
}

// BufferLen returns the number of frames read per tick at the given sample
// rate, which is the configured rate except for replayed files.
func (c *Config) BufferLen(sampleRate float64) int {
	if c.Audio.FrameRate <= 0 {
		return 0
	}
	return int(sampleRate) / c.Audio.FrameRate
}

// TickInterval is the wall-clock duration of one buffer.
func (c *Config) TickInterval() time.Duration {
	if c.Audio.FrameRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Audio.FrameRate)
}

// Pipeline converts the render section into a render.Config.
func (c *Config) Pipeline() render.Config {
	return render.Config{
		SplitLayout:          c.Render.Layout == LayoutSplit,
		ShowSpectrum:         c.Render.Spectrum,
		ShowDiagnostics:      c.Render.Diagnostics,
		AmplitudeScale:       c.Render.AmplitudeScale,
		MinSpectrumMagnitude: c.Render.MinSpectrumMagnitude,
		SpectrumGain:         c.Render.SpectrumGain,
	}
}

// Window returns the parsed FFT window function.
func (c *Config) Window() (analysis.WindowFunc, error) {
	return analysis.ParseWindowFunc(c.Render.FFTWindow)
}

func (c *Config) String() string {
	return fmt.Sprintf("source=%s device=%d rate=%.0f fps=%d layout=%s spectrum=%t",
		c.Audio.Source, c.Audio.InputDevice, c.Audio.SampleRate, c.Audio.FrameRate,
		c.Render.Layout, c.Render.Spectrum)
}
