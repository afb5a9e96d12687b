// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"equalizer/internal/dsp"
	applog "equalizer/internal/log"
	"equalizer/pkg/bitint"
)

// DefaultPath is the file LoadConfig looks for when no path is given.
const DefaultPath = "equalizer.yaml"

// Input sources.
const (
	SourcePortAudio = "portaudio"
	SourceWav       = "wav"
	SourceSynthetic = "synthetic"
)

// Hardware and display limits.
const (
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
	MinTick         = 50 * time.Millisecond
	MaxTick         = 500 * time.Millisecond
	DefaultTick     = 250 * time.Millisecond
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	LogFile   string          `yaml:"log_file"`  // Rotating log file; empty logs to stderr (headless only).
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Display   DisplayConfig   `yaml:"display"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig selects the input and the shape of the frames it delivers.
type AudioConfig struct {
	Source          string  `yaml:"source"`            // "portaudio", "wav" or "synthetic".
	Host            string  `yaml:"host"`              // Exact host API name, empty for the default.
	Device          string  `yaml:"device"`            // Exact input device name, empty for the default.
	InputFile       string  `yaml:"input_file"`        // WAV file replayed by the "wav" source.
	Loop            bool    `yaml:"loop"`              // Restart the WAV file at its end.
	Realtime        bool    `yaml:"realtime"`          // Pace WAV replay at its sample rate; false analyzes every frame as fast as possible.
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per callback; 0 lets the driver choose.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
}

// AnalysisConfig holds the spectrum pipeline settings.
type AnalysisConfig struct {
	Bins       int    `yaml:"bins"`        // Number of bars, 1 to 31.
	Window     string `yaml:"window"`      // Window function name (e.g., "hann", "hamming").
	QueueDepth int    `yaml:"queue_depth"` // Frames buffered ahead of the worker.
}

// DisplayConfig controls the render tick.
type DisplayConfig struct {
	Tick     time.Duration `yaml:"tick"`     // Render interval, 50ms to 500ms.
	Headless bool          `yaml:"headless"` // Print text bars instead of the terminal UI.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled bool   `yaml:"enabled"` // Record the captured mono stream.
	Output  string `yaml:"output"`  // Output WAV path.
}

// TransportConfig holds settings related to sending snapshots over the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable sending snapshots over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between sending UDP packets.
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve snapshots as JSON over a websocket.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address for the websocket server.
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		LogFile:  "equalizer.log",
		Audio: AudioConfig{
			Source:          SourcePortAudio,
			SampleRate:      44100,
			FramesPerBuffer: 1024,
			Loop:            true,
			Realtime:        true,
		},
		Analysis: AnalysisConfig{
			Bins:   dsp.DefaultBins,
			Window: dsp.Hann.String(),
		},
		Display: DisplayConfig{
			Tick: DefaultTick,
		},
		Recording: RecordingConfig{
			Output: "capture.wav",
		},
		Transport: TransportConfig{
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond, // Default ~30Hz.
			WebSocketAddress: "127.0.0.1:8080",
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it looks for DefaultPath in the working directory and falls back to the built-in
// defaults. Environment variable overrides are applied last, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error, fatal", c.LogLevel))
	}

	switch c.Audio.Source {
	case SourcePortAudio, SourceSynthetic:
	case SourceWav:
		if c.Audio.InputFile == "" {
			errs = append(errs, errors.New("audio.input_file must be set for the wav source"))
		}
	default:
		errs = append(errs, fmt.Errorf("audio.source %q is not one of %s, %s, %s",
			c.Audio.Source, SourcePortAudio, SourceWav, SourceSynthetic))
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate %.0f outside %d..%d", c.Audio.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if fpb := c.Audio.FramesPerBuffer; fpb != 0 && (fpb < 0 || fpb > MaxBufferFrames || !bitint.IsPowerOfTwo(fpb)) {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer %d must be a power of two up to %d", fpb, MaxBufferFrames))
	}

	if c.Analysis.Bins < 1 || c.Analysis.Bins > dsp.MaxBins {
		errs = append(errs, fmt.Errorf("analysis.bins %d outside 1..%d", c.Analysis.Bins, dsp.MaxBins))
	}
	if _, err := dsp.ParseWindowFunc(c.Analysis.Window); err != nil {
		errs = append(errs, fmt.Errorf("analysis.window: %w", err))
	}
	if c.Analysis.QueueDepth < 0 {
		errs = append(errs, fmt.Errorf("analysis.queue_depth %d must not be negative", c.Analysis.QueueDepth))
	}

	if c.Display.Tick < MinTick || c.Display.Tick > MaxTick {
		errs = append(errs, fmt.Errorf("display.tick %s outside %s..%s", c.Display.Tick, MinTick, MaxTick))
	}

	if c.Recording.Enabled && c.Recording.Output == "" {
		errs = append(errs, errors.New("recording.output must be set when recording is enabled"))
	}

	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			errs = append(errs, fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress))
		}
		if c.Transport.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}
	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddress == "" {
		errs = append(errs, errors.New("transport.websocket_address must be set when the websocket is enabled"))
	}

	return errors.Join(errs...)
}

// WindowFunc returns the parsed analysis window. Call Validate first.
func (c *Config) WindowFunc() dsp.WindowFunc {
	w, _ := dsp.ParseWindowFunc(c.Analysis.Window)
	return w
}

// applyEnvOverrides replaces settings with ENV_* variables when present.
// Unparseable values are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	str := func(name string, dst *string) {
		if val, ok := os.LookupEnv(name); ok {
			*dst = val
			applog.Debugf("configuration: Overriding from %s: %s", name, val)
		}
	}
	boolean := func(name string, dst *bool) {
		if val, ok := os.LookupEnv(name); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				applog.Warnf("configuration: Ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = b
			applog.Debugf("configuration: Overriding from %s: %v", name, b)
		}
	}
	integer := func(name string, dst *int) {
		if val, ok := os.LookupEnv(name); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				applog.Warnf("configuration: Ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = n
			applog.Debugf("configuration: Overriding from %s: %d", name, n)
		}
	}
	duration := func(name string, dst *time.Duration) {
		if val, ok := os.LookupEnv(name); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				applog.Warnf("configuration: Ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = d
			applog.Debugf("configuration: Overriding from %s: %s", name, d)
		}
	}

	// ENV_{...}
	// These are general overrides.
	str("ENV_LOG_LEVEL", &c.LogLevel)
	str("ENV_LOG_FILE", &c.LogFile)

	// ENV_AUDIO_{...}
	str("ENV_AUDIO_SOURCE", &c.Audio.Source)
	str("ENV_AUDIO_HOST", &c.Audio.Host)
	str("ENV_AUDIO_DEVICE", &c.Audio.Device)
	str("ENV_AUDIO_INPUT_FILE", &c.Audio.InputFile)
	boolean("ENV_AUDIO_REALTIME", &c.Audio.Realtime)

	// ENV_ANALYSIS_{...} and ENV_DISPLAY_{...}
	integer("ENV_ANALYSIS_BINS", &c.Analysis.Bins)
	str("ENV_ANALYSIS_WINDOW", &c.Analysis.Window)
	duration("ENV_DISPLAY_TICK", &c.Display.Tick)
	boolean("ENV_DISPLAY_HEADLESS", &c.Display.Headless)

	// ENV_UDP_{...} and ENV_WEBSOCKET_{...}
	// These are specific to the transport layer.
	boolean("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	str("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	duration("ENV_UDP_SEND_INTERVAL", &c.Transport.UDPSendInterval)
	boolean("ENV_WEBSOCKET_ENABLED", &c.Transport.WebSocketEnabled)
	str("ENV_WEBSOCKET_ADDRESS", &c.Transport.WebSocketAddress)
}
