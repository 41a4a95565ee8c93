// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"termvis/internal/analysis"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Audio.Source != DefaultSource || cfg.Audio.FrameRate != DefaultFrameRate {
		t.Errorf("expected defaults, got %s", cfg)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
audio:
  source: file
  file: song.ogg
  sample_rate: 48000
  frame_rate: 30
render:
  layout: split
  spectrum: true
  spectrum_gain: 0.5
  fft_window: hann
transport:
  udp_enabled: true
  udp_send_interval: 50ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.Audio.Source != SourceFile || cfg.Audio.File != "song.ogg" {
		t.Errorf("top-level values not loaded: %+v", cfg)
	}
	if got := cfg.BufferLen(cfg.Audio.SampleRate); got != 1600 {
		t.Errorf("BufferLen() = %d, want 1600", got)
	}
	if cfg.Transport.UDPSendInterval != 50*time.Millisecond {
		t.Errorf("udp_send_interval = %v, want 50ms", cfg.Transport.UDPSendInterval)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Render.AmplitudeScale != 0.25 || !cfg.Render.Diagnostics {
		t.Errorf("defaults lost: %+v", cfg.Render)
	}

	p := cfg.Pipeline()
	if !p.SplitLayout || !p.ShowSpectrum || p.SpectrumGain != 0.5 {
		t.Errorf("Pipeline() = %+v", p)
	}
	if w, err := cfg.Window(); err != nil || w != analysis.Hann {
		t.Errorf("Window() = %v, %v", w, err)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "audio:\n  frame_rate: 0\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "audio.frame_rate") {
		t.Errorf("expected frame rate validation error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TERMVIS_AUDIO_SOURCE", "stdin")
	t.Setenv("TERMVIS_AUDIO_SAMPLE_RATE", "48000")
	t.Setenv("TERMVIS_RENDER_SPECTRUM", "true")
	t.Setenv("TERMVIS_UDP_SEND_INTERVAL", "10ms")
	t.Setenv("TERMVIS_WS_ENABLED", "yes") // not a bool, ignored

	path := writeTempConfig(t, "audio:\n  source: portaudio\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Audio.Source != SourceStdin {
		t.Errorf("source = %q, want the environment to win over the file", cfg.Audio.Source)
	}
	if cfg.Audio.SampleRate != 48000 || !cfg.Render.Spectrum {
		t.Errorf("overrides not applied: %s", cfg)
	}
	if cfg.Transport.UDPSendInterval != 10*time.Millisecond {
		t.Errorf("udp_send_interval = %v", cfg.Transport.UDPSendInterval)
	}
	if cfg.Transport.WebSocketEnabled {
		t.Error("unparseable override was applied")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Defaults", func(*Config) {}, ""},
		{"Unknown source", func(c *Config) { c.Audio.Source = "jack" }, "audio.source"},
		{"File without path", func(c *Config) { c.Audio.Source = SourceFile }, "audio.file"},
		{"Bad device", func(c *Config) { c.Audio.InputDevice = -2 }, "audio.input_device"},
		{"Sample rate too low", func(c *Config) { c.Audio.SampleRate = 100 }, "audio.sample_rate"},
		{"Frame rate too high", func(c *Config) { c.Audio.FrameRate = 1000 }, "audio.frame_rate"},
		{"Unknown layout", func(c *Config) { c.Render.Layout = "grid" }, "render.layout"},
		{"Unknown window", func(c *Config) { c.Render.FFTWindow = "kaiser" }, "render.fft_window"},
		{"Amplitude scale", func(c *Config) { c.Render.AmplitudeScale = 2 }, "amplitude scale"},
		{"Log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"WebSocket without address", func(c *Config) {
			c.Transport.WebSocketEnabled = true
			c.Transport.WebSocketAddress = ""
		}, "websocket_address"},
		{"UDP interval", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPSendInterval = 0
		}, "udp_send_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := NewConfig()
	cfg.Audio.Source = "jack"
	cfg.Render.Layout = "grid"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"audio.source", "render.layout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestDerivedTiming(t *testing.T) {
	cfg := NewConfig()
	if got := cfg.BufferLen(44100); got != 735 {
		t.Errorf("BufferLen(44100) = %d, want 735", got)
	}
	if got := cfg.BufferLen(48000); got != 800 {
		t.Errorf("BufferLen(48000) = %d, want 800", got)
	}
	if got := cfg.TickInterval(); got != time.Second/60 {
		t.Errorf("TickInterval() = %v", got)
	}

	cfg.Audio.FrameRate = 0
	if cfg.BufferLen(44100) != 0 || cfg.TickInterval() != 0 {
		t.Error("zero frame rate should give zero timing")
	}
}
