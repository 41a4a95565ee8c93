// Package cmd parses the command line into a loaded configuration.
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"termvis/internal/config"
	"termvis/pkg/build"
)

// One-off commands.
const (
	CommandList = "list"
	CommandPick = "pick"
)

// Options is the parsed command line.
type Options struct {
	Config  *config.Config
	Command string // Empty to visualize, or CommandList / CommandPick.
	Run     bool   // False after --help or --version.
}

// flagValues collects flag values before they are merged into the loaded
// configuration. Only flags the user set override the file.
type flagValues struct {
	configPath string

	source     string
	device     int
	sampleRate float64
	frameRate  int
	lowLatency bool
	latestOnly bool

	split       bool
	spectrum    bool
	diagnostics bool
	window      string

	wsAddress  string
	udpAddress string

	logFile string
	verbose bool
}

// ParseArgs parses args (without the program name), loads the configuration
// file and applies the flags that were set.
func ParseArgs(args []string, out io.Writer) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	opts := &Options{}
	var fv flagValues

	resolve := func(cmd *cobra.Command, positional []string, command string) error {
		cfg, err := config.LoadConfig(fv.configPath)
		if err != nil {
			return err
		}
		if len(positional) > 0 {
			cfg.Audio.Source = config.SourceFile
			cfg.Audio.File = positional[0]
		}
		fv.apply(cmd.Flags(), cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid options: %w", err)
		}
		opts.Config = cfg
		opts.Command = command
		opts.Run = true
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [file]",
		Short:         buildInfo.Description,
		Long:          buildInfo.Description + ".\n\nReads stereo audio from a PortAudio device, raw float32 stdin or a WAV, MP3, Ogg or FLAC file\nand draws its waveform and spectrum in the terminal. Press q, Esc or Ctrl-C to quit.",
		Version:       buildInfo.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, positional []string) error {
			return resolve(cmd, positional, "")
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   CommandList,
			Short: "List available audio devices",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return resolve(cmd, nil, CommandList)
			},
		},
		&cobra.Command{
			Use:   CommandPick,
			Short: "Choose an input device interactively, then visualize it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return resolve(cmd, nil, CommandPick)
			},
		},
	)

	defaults := config.NewConfig()
	pf := rootCmd.PersistentFlags()

	pf.StringVarP(&fv.configPath, "config", "C", "",
		"Configuration file (default ./config.yaml when present)")

	// Capture
	pf.StringVar(&fv.source, "source", defaults.Audio.Source,
		"Capture source: portaudio, stdin or file")
	pf.IntVarP(&fv.device, "device", "d", defaults.Audio.InputDevice,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.Float64VarP(&fv.sampleRate, "sample-rate", "s", defaults.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&fv.frameRate, "frame-rate", "f", defaults.Audio.FrameRate,
		"Frames drawn per second; one buffer is sample-rate/frame-rate frames")
	pf.BoolVarP(&fv.lowLatency, "low-latency", "l", defaults.Audio.LowLatency,
		"Use low latency mode for real-time processing")
	pf.BoolVar(&fv.latestOnly, "latest-only", defaults.Audio.LatestOnly,
		"Drop queued device buffers so the display never lags")

	// Render
	pf.BoolVar(&fv.split, "split", defaults.Render.Layout == config.LayoutSplit,
		"Draw the channels side by side instead of stacked")
	pf.BoolVar(&fv.spectrum, "spectrum", defaults.Render.Spectrum,
		"Draw the spectrum below the waveform")
	pf.BoolVar(&fv.diagnostics, "diagnostics", defaults.Render.Diagnostics,
		"Draw the diagnostics overlay")
	pf.StringVarP(&fv.window, "window", "w", defaults.Render.FFTWindow,
		"FFT window function (none, hann, hamming, blackman, ...)")

	// Taps
	pf.StringVar(&fv.wsAddress, "ws", "",
		"Broadcast frames to WebSocket clients on this address, e.g. 127.0.0.1:8080")
	pf.StringVar(&fv.udpAddress, "udp", "",
		"Send spectrum packets to this UDP address, e.g. 127.0.0.1:9090")

	// Debug
	pf.StringVar(&fv.logFile, "log-file", defaults.LogFile,
		"Write logs to this file while the visualizer runs")
	pf.BoolVarP(&fv.verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return opts, nil
}

func (fv *flagValues) apply(flags *pflag.FlagSet, cfg *config.Config) {
	changed := flags.Changed

	if changed("source") {
		cfg.Audio.Source = fv.source
	}
	if changed("device") {
		cfg.Audio.InputDevice = fv.device
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = fv.sampleRate
	}
	if changed("frame-rate") {
		cfg.Audio.FrameRate = fv.frameRate
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = fv.lowLatency
	}
	if changed("latest-only") {
		cfg.Audio.LatestOnly = fv.latestOnly
	}

	if changed("split") {
		cfg.Render.Layout = config.LayoutStacked
		if fv.split {
			cfg.Render.Layout = config.LayoutSplit
		}
	}
	if changed("spectrum") {
		cfg.Render.Spectrum = fv.spectrum
	}
	if changed("diagnostics") {
		cfg.Render.Diagnostics = fv.diagnostics
	}
	if changed("window") {
		cfg.Render.FFTWindow = fv.window
	}

	if changed("ws") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = fv.wsAddress
	}
	if changed("udp") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = fv.udpAddress
	}

	if changed("log-file") {
		cfg.LogFile = fv.logFile
	}
	if changed("verbose") && fv.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
}
