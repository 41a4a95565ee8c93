// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	applog "termvis/internal/log"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TERMVIS_"

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("configuration: loaded %s", path)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every section and returns all problems found.
func (c *Config) Validate() error {
	var errs []error

	switch c.Audio.Source {
	case SourcePortAudio:
		if c.Audio.InputDevice < MinDeviceID {
			errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, c.Audio.InputDevice))
		}
	case SourceStdin:
	case SourceFile:
		if c.Audio.File == "" {
			errs = append(errs, errors.New("audio.file must be set when audio.source is \"file\""))
		}
	default:
		errs = append(errs, fmt.Errorf("audio.source %q is not one of %s, %s, %s",
			c.Audio.Source, SourcePortAudio, SourceStdin, SourceFile))
	}

	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be in [%d, %d], got %g",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate))
	}
	if c.Audio.FrameRate < 1 || c.Audio.FrameRate > MaxFrameRate {
		errs = append(errs, fmt.Errorf("audio.frame_rate must be in [1, %d], got %d", MaxFrameRate, c.Audio.FrameRate))
	}

	switch c.Render.Layout {
	case LayoutStacked, LayoutSplit:
	default:
		errs = append(errs, fmt.Errorf("render.layout %q is not one of %s, %s", c.Render.Layout, LayoutStacked, LayoutSplit))
	}
	if _, err := c.Window(); err != nil {
		errs = append(errs, fmt.Errorf("render.fft_window: %w", err))
	}
	if err := c.Pipeline().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("render: %w", err))
	}

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not recognised", c.LogLevel))
	}

	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddress == "" {
		errs = append(errs, errors.New("transport.websocket_address must be set when WebSocket is enabled"))
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			errs = append(errs, errors.New("transport.udp_target_address must be set when UDP is enabled"))
		}
		if c.Transport.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies TERMVIS_* variables on top of the file values.
// Unparseable values are logged and ignored.
func (c *Config) applyEnvOverrides() {
	envString("DEBUG", func(v string) error { return parseBool(v, &c.Debug) })
	envString("LOG_LEVEL", func(v string) error { c.LogLevel = v; return nil })
	envString("LOG_FILE", func(v string) error { c.LogFile = v; return nil })

	// TERMVIS_AUDIO_{...}
	envString("AUDIO_SOURCE", func(v string) error { c.Audio.Source = v; return nil })
	envString("AUDIO_FILE", func(v string) error { c.Audio.File = v; return nil })
	envString("AUDIO_INPUT_DEVICE", func(v string) error { return parseInt(v, &c.Audio.InputDevice) })
	envString("AUDIO_SAMPLE_RATE", func(v string) error { return parseFloat(v, &c.Audio.SampleRate) })
	envString("AUDIO_FRAME_RATE", func(v string) error { return parseInt(v, &c.Audio.FrameRate) })

	// TERMVIS_RENDER_{...}
	envString("RENDER_LAYOUT", func(v string) error { c.Render.Layout = v; return nil })
	envString("RENDER_SPECTRUM", func(v string) error { return parseBool(v, &c.Render.Spectrum) })
	envString("RENDER_FFT_WINDOW", func(v string) error { c.Render.FFTWindow = v; return nil })

	// TERMVIS_WS_{...} and TERMVIS_UDP_{...}
	envString("WS_ENABLED", func(v string) error { return parseBool(v, &c.Transport.WebSocketEnabled) })
	envString("WS_ADDRESS", func(v string) error { c.Transport.WebSocketAddress = v; return nil })
	envString("UDP_ENABLED", func(v string) error { return parseBool(v, &c.Transport.UDPEnabled) })
	envString("UDP_TARGET_ADDRESS", func(v string) error { c.Transport.UDPTargetAddress = v; return nil })
	envString("UDP_SEND_INTERVAL", func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Transport.UDPSendInterval = d
		return nil
	})
}

func envString(name string, apply func(string) error) {
	key := EnvPrefix + name
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if err := apply(val); err != nil {
		applog.Warnf("configuration: ignoring %s=%q: %v", key, val, err)
		return
	}
	applog.Debugf("configuration: overriding from %s: %s", key, val)
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func parseInt(v string, dst *int) error {
	i, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = i
	return nil
}

func parseFloat(v string, dst *float64) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}
