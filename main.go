package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"termvis/cmd"
	"termvis/internal/analysis"
	"termvis/internal/audio"
	"termvis/internal/canvas"
	"termvis/internal/config"
	applog "termvis/internal/log"
	"termvis/internal/render"
	"termvis/internal/transport"
	"termvis/internal/transport/udp"
	"termvis/internal/tui"
	"termvis/pkg/build"
)

// main runs in three phases:
//
// 1. Startup (cold path): parse arguments, open the capture source, the
// analyzer, the frame taps and the terminal. Any failure here is fatal.
//
// 2. Render loop (hot path): one goroutine reads a buffer, analyzes and
// draws it, once per buffer, until the user quits or the source ends.
//
// 3. Shutdown (cold path): detach the terminal first so that errors are
// printed to a usable tty, then release everything else.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Debugf("Development build: %v", err)
	}

	// The render loop is single-threaded; the rest are edge goroutines
	// (terminal events, WebSocket server, UDP publisher).
	runtime.GOMAXPROCS(2)

	opts, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", build.GetBuildFlags().Name, err)
		os.Exit(2)
	}
	if !opts.Run {
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", build.GetBuildFlags().Name, err)
		os.Exit(1)
	}
}

func run(opts *cmd.Options) error {
	cfg := opts.Config
	configureLogLevel(cfg)

	switch opts.Command {
	case cmd.CommandList:
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices(os.Stdout)

	case cmd.CommandPick:
		sel, ok, err := tui.Pick()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cfg.Audio.Source = config.SourcePortAudio
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return visualize(ctx, cfg)
}

func configureLogLevel(cfg *config.Config) {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
}

func visualize(ctx context.Context, cfg *config.Config) error {
	applog.Infof("Starting %s %s: %s", build.GetBuildFlags().Name, build.GetBuildFlags().Version, cfg)

	src, err := openSource(cfg)
	if err != nil {
		return &render.SetupError{Component: "capture", Err: err}
	}
	defer src.Close()

	frames := cfg.BufferLen(cfg.Audio.SampleRate)
	capture, err := audio.NewCapture(src, audio.StereoFloat(cfg.Audio.SampleRate), frames, cfg.Audio.LatestOnly)
	if err != nil {
		return &render.SetupError{Component: "capture", Err: err}
	}

	// A nil *Analyzer must not end up inside the interface.
	var analyzer analysis.SpectrumAnalyzer
	if cfg.Render.Spectrum {
		win, err := cfg.Window()
		if err != nil {
			return &render.SetupError{Component: "analyzer", Err: err}
		}
		a, err := analysis.NewAnalyzer(frames, cfg.Audio.SampleRate, win)
		if err != nil {
			return &render.SetupError{Component: "analyzer", Err: err}
		}
		analyzer = a
	}

	taps, err := openTaps(cfg)
	if err != nil {
		return &render.SetupError{Component: "transport", Err: err}
	}
	defer func() {
		for _, tap := range taps {
			if err := tap.Close(); err != nil {
				applog.Warnf("Transport: close failed: %v", err)
			}
		}
	}()

	term, err := canvas.NewTerminal()
	if err != nil {
		return &render.SetupError{Component: "canvas", Err: err}
	}

	pipeline, err := render.New(cfg.Pipeline(), term, capture, analyzer, taps...)
	if err != nil {
		return err
	}

	// Logging to the tty would corrupt the grid.
	logOut, err := logDestination(cfg.LogFile)
	if err != nil {
		return &render.SetupError{Component: "log", Err: err}
	}
	defer logOut.Close()
	applog.SetOutput(logOut)
	defer applog.SetOutput(os.Stderr)

	if err := term.Attach(); err != nil {
		return &render.SetupError{Component: "canvas", Err: err}
	}
	defer term.Detach()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-term.Quit():
			cancel()
		case <-ctx.Done():
		}
	}()

	err = pipeline.Run(ctx)
	if errors.Is(err, audio.ErrUnderrun) && cfg.Audio.Source != config.SourcePortAudio {
		// Finite sources rarely end on a buffer boundary.
		applog.Infof("Capture: source ended mid-buffer after %d frames", pipeline.Frames())
		err = nil
	}
	return err
}

// openSource opens the configured capture source. Replayed files replace
// the configured sample rate with their own and are paced to real time.
func openSource(cfg *config.Config) (audio.Source, error) {
	switch cfg.Audio.Source {
	case config.SourcePortAudio:
		if err := audio.Initialize(); err != nil {
			return nil, err
		}
		frames := cfg.BufferLen(cfg.Audio.SampleRate)
		pa, err := audio.OpenPortAudio(cfg.Audio.InputDevice, cfg.Audio.SampleRate, frames, cfg.Audio.LowLatency)
		if err != nil {
			audio.Terminate()
			return nil, err
		}
		return &terminatingSource{pa}, nil

	case config.SourceStdin:
		return audio.NewRawSource(os.Stdin, audio.StereoFloat(cfg.Audio.SampleRate)), nil

	case config.SourceFile:
		f, err := audio.OpenFile(cfg.Audio.File)
		if err != nil {
			return nil, err
		}
		rate := f.Format().SampleRate
		if rate != cfg.Audio.SampleRate {
			applog.Infof("Capture: using the file's sample rate of %.0f Hz", rate)
			cfg.Audio.SampleRate = rate
		}
		frames := cfg.BufferLen(rate)
		interval := time.Duration(float64(frames) / rate * float64(time.Second))
		return audio.Paced(f, frames*audio.BytesPerFrame, interval), nil
	}
	return nil, fmt.Errorf("unknown source %q", cfg.Audio.Source)
}

// terminatingSource shuts PortAudio down after closing the stream.
type terminatingSource struct {
	*audio.PortAudioSource
}

func (s *terminatingSource) Close() error {
	err := s.PortAudioSource.Close()
	if terr := audio.Terminate(); err == nil {
		err = terr
	}
	return err
}

func openTaps(cfg *config.Config) (taps []transport.Transport, err error) {
	defer func() {
		if err != nil {
			for _, tap := range taps {
				tap.Close()
			}
			taps = nil
		}
	}()

	if cfg.Transport.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		if err != nil {
			return taps, fmt.Errorf("websocket: %w", err)
		}
		applog.Infof("Transport: WebSocket clients can connect to ws://%s/ws", ws.Addr())
		taps = append(taps, ws)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return taps, err
		}
		pub, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return taps, err
		}
		pub.Start()
		taps = append(taps, pub)
	}

	if cfg.Debug {
		taps = append(taps, transport.NewLoggingTransport())
	}
	return taps, nil
}

func logDestination(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{io.Discard}, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
