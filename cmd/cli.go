// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"equalizer/internal/config"
	"equalizer/internal/dsp"
	"equalizer/pkg/build"
)

// ErrHandled means cobra already printed help or the version and there is
// nothing left to run.
var ErrHandled = errors.New("command handled")

// Command is the action selected on the command line.
type Command int

const (
	CommandRun Command = iota
	CommandList
	CommandVersion
)

// Invocation is the parsed command line.
type Invocation struct {
	Command     Command
	Config      *config.Config
	Interactive bool // list: pick a device instead of printing all of them
}

type flagValues struct {
	configPath string
	source     string
	host       string
	device     string
	input      string
	realtime   bool
	bins       int
	window     string
	tick       time.Duration
	headless   bool
	record     bool
	output     string
	udp        string
	websocket  string
	logLevel   string
	logFile    string
	verbose    bool
}

// ParseArgs parses args (without the program name). Flags override the
// config file, which overrides the built-in defaults.
func ParseArgs(args []string, stdout io.Writer) (*Invocation, error) {
	buildInfo := build.Get()
	inv := &Invocation{Command: CommandRun}
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv.Command = CommandRun
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetArgs(args)

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List audio hosts and input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv.Command = CommandList
			return nil
		},
	}
	listCmd.Flags().BoolVarP(&inv.Interactive, "interactive", "i", false,
		"Pick a device and print the matching --host and --device flags")
	rootCmd.AddCommand(listCmd)

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv.Command = CommandVersion
			return nil
		},
	})

	flags := rootCmd.PersistentFlags()

	flags.StringVar(&fv.configPath, "config", "",
		"Configuration file (default "+config.DefaultPath+" when present)")

	// Audio Input Configuration
	flags.StringVarP(&fv.source, "source", "s", config.SourcePortAudio,
		"Audio source: portaudio, wav or synthetic")
	flags.StringVar(&fv.host, "host", "",
		"Exact host API name. Use 'list' command to see available hosts.")
	flags.StringVarP(&fv.device, "device", "d", "",
		"Exact input device name. Use 'list' command to see available devices.")
	flags.StringVarP(&fv.input, "input", "f", "",
		"WAV file replayed by the wav source")

	flags.BoolVar(&fv.realtime, "realtime", true,
		"Replay WAV files at their sample rate; --realtime=false analyzes every frame")

	// Analysis and Display Configuration
	flags.IntVarP(&fv.bins, "bins", "b", dsp.DefaultBins, "Number of bars (1-31)")
	flags.StringVarP(&fv.window, "window", "w", dsp.Hann.String(),
		"Window function: hann, hamming, blackman, rectangular, ...")
	flags.DurationVarP(&fv.tick, "tick", "t", config.DefaultTick, "Render interval (50ms-500ms)")
	flags.BoolVar(&fv.headless, "headless", false, "Print text lines instead of the terminal UI")

	// Recording Configuration
	flags.BoolVarP(&fv.record, "record", "r", false, "Record the captured input to a WAV file")
	flags.StringVarP(&fv.output, "output", "o", "", "Recording file name")

	// Transport Configuration
	flags.StringVar(&fv.udp, "udp", "", "Send snapshots as UDP packets to host:port")
	flags.StringVar(&fv.websocket, "websocket", "", "Serve snapshots over a websocket on host:port")

	// Debug Configuration
	flags.StringVar(&fv.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&fv.logFile, "log-file", "", "Log file used while the terminal UI is shown")
	flags.BoolVarP(&fv.verbose, "verbose", "v", false, "Show verbose output (same as --log-level debug)")

	executed, err := rootCmd.ExecuteC()
	if err != nil {
		return nil, err
	}
	if executed.Flags().Changed("help") || executed.Flags().Changed("version") {
		return nil, ErrHandled
	}
	if inv.Command == CommandVersion {
		return inv, nil
	}

	cfg, err := config.LoadConfig(fv.configPath)
	if err != nil {
		return nil, err
	}
	fv.apply(executed, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	inv.Config = cfg
	return inv, nil
}

// apply copies every flag the user set over the loaded configuration.
func (fv *flagValues) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("source") {
		cfg.Audio.Source = fv.source
	}
	if changed("host") {
		cfg.Audio.Host = fv.host
	}
	if changed("device") {
		cfg.Audio.Device = fv.device
	}
	if changed("input") {
		cfg.Audio.InputFile = fv.input
		if !changed("source") {
			cfg.Audio.Source = config.SourceWav
		}
	}
	if changed("realtime") {
		cfg.Audio.Realtime = fv.realtime
	}
	if changed("bins") {
		cfg.Analysis.Bins = fv.bins
	}
	if changed("window") {
		cfg.Analysis.Window = fv.window
	}
	if changed("tick") {
		cfg.Display.Tick = fv.tick
	}
	if changed("headless") {
		cfg.Display.Headless = fv.headless
	}
	if changed("record") {
		cfg.Recording.Enabled = fv.record
	}
	if changed("output") {
		cfg.Recording.Output = fv.output
	}
	if changed("udp") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = fv.udp
	}
	if changed("websocket") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = fv.websocket
	}
	if changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = fv.logFile
	}
	if fv.verbose {
		cfg.LogLevel = "debug"
	}
}
