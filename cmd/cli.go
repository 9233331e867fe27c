package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"visualizer/internal/config"
	"visualizer/pkg/build"
)

// Options is the parsed command line.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Command    string // One-off command ("list"), empty to run the visualizer.
	Run        bool   // False when cobra fully handled the invocation (help, version).
}

// flagValues holds raw flag values; only flags the user set are applied on
// top of the loaded configuration.
type flagValues struct {
	device          int
	bars            int
	sampleRate      int
	framesPerBuffer int
	channels        int
	lowLatency      bool
	record          bool
	output          string
	headless        bool
	ws              string
	udp             string
	metrics         bool
	verbose         bool
	logFile         string
}

// ParseArgs parses args (without the program name) into Options.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.Get()
	options := &Options{}
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(options.ConfigPath)
			if err != nil {
				return err
			}
			applyFlags(cfg, cmd.Flags(), &fv)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			options.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Run = true
			return nil
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available input devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
			options.Run = true
		},
	}
	rootCmd.AddCommand(listCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&options.ConfigPath, "config", "",
		"Path to a YAML configuration file (default: ./config.yaml if present)")

	// Audio Device Configuration
	flags.IntVarP(&fv.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID (-1 selects automatically). Use 'list' command to see available devices.")
	flags.IntVarP(&fv.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo, 0=device maximum up to 2)")
	flags.IntVarP(&fv.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz). 0 uses the device default")
	flags.IntVarP(&fv.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency and frequency resolution)")
	flags.BoolVarP(&fv.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Render Configuration
	flags.IntVarP(&fv.bars, "bars", "n", config.DefaultBarCount,
		"Number of spectrum bars")
	flags.BoolVar(&fv.headless, "headless", false,
		"Run without the terminal UI")
	flags.StringVar(&fv.ws, "ws", config.DefaultWebSocketAddress,
		"Broadcast frames to websocket clients on this address")
	flags.Lookup("ws").NoOptDefVal = config.DefaultWebSocketAddress
	flags.StringVar(&fv.udp, "udp", config.DefaultUDPTargetAddress,
		"Send frames as UDP packets to this address")
	flags.Lookup("udp").NoOptDefVal = config.DefaultUDPTargetAddress
	flags.BoolVar(&fv.metrics, "metrics", false,
		"Serve Prometheus metrics on the websocket address")

	// Recording Configuration
	flags.BoolVarP(&fv.record, "record", "r", false,
		"Record audio from the input device while capturing")
	flags.StringVarP(&fv.output, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav in the recording directory")

	// Debug Configuration
	flags.BoolVarP(&fv.verbose, "verbose", "v", false,
		"Show verbose output")
	flags.StringVar(&fv.logFile, "log-file", "",
		"Write logs to this file (the terminal UI hides console logs)")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cfg *config.Config, flags *pflag.FlagSet, fv *flagValues) {
	changed := flags.Changed

	if changed("device") {
		cfg.Audio.InputDevice = fv.device
	}
	if changed("channels") {
		cfg.Audio.InputChannels = fv.channels
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = fv.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = fv.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = fv.lowLatency
	}
	if changed("bars") {
		cfg.Render.BarCount = fv.bars
	}
	if changed("headless") && fv.headless {
		cfg.Render.Mode = config.ModeHeadless
	}
	if changed("ws") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = fv.ws
	}
	if changed("udp") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = fv.udp
	}
	if changed("metrics") {
		cfg.Transport.MetricsEnabled = fv.metrics
	}
	if changed("record") {
		cfg.Recording.Enabled = fv.record
	}
	if changed("output") {
		cfg.Recording.Enabled = true
		cfg.Recording.OutputFile = fv.output
	}
	if changed("verbose") && fv.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if changed("log-file") {
		cfg.LogFile = fv.logFile
	}
}

// RecordingPath returns the WAV file to record to: the configured file, or
// a timestamped name in the recording directory.
func RecordingPath(cfg config.RecordingConfig, now time.Time) string {
	if cfg.OutputFile != "" {
		return cfg.OutputFile
	}
	name := "recording-" + now.UTC().Format("02-01-2006-150405") + ".wav"
	return filepath.Join(cfg.OutputDir, name)
}
