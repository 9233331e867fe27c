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
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug       bool              `yaml:"debug"`             // Enable debug logging.
	LogLevel    string            `yaml:"log_level"`         // Logging level (e.g., "debug", "info", "warn", "error").
	LogFile     string            `yaml:"log_file"`          // Optional log file; required for readable logs in TUI mode.
	Command     string            `yaml:"command,omitempty"` // A one-off command to execute instead of running (e.g., "list").
	Audio       AudioConfig       `yaml:"audio"`             // Capture settings.
	Analysis    AnalysisConfig    `yaml:"analysis"`          // Spectrum computation settings.
	Render      RenderConfig      `yaml:"render"`            // Render clock and surface settings.
	Transport   TransportConfig   `yaml:"transport"`         // Network render sinks.
	Recording   RecordingConfig   `yaml:"recording"`         // WAV tap settings.
	Preferences PreferencesConfig `yaml:"preferences"`       // Persisted visual preferences.
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	InputDevice     int    `yaml:"input_device"`      // Backend device index (-1 to auto-select).
	PreferredKind   string `yaml:"preferred_kind"`    // Kind tried first when auto-selecting: loopback, microphone or any.
	SampleRate      int    `yaml:"sample_rate"`       // Sample rate in Hz (0 for the device default).
	FramesPerBuffer int    `yaml:"frames_per_buffer"` // Frames per callback block (also the DFT length).
	InputChannels   int    `yaml:"input_channels"`    // 1 or 2 (0 for min(2, device max)).
	LowLatency      bool   `yaml:"low_latency"`       // Request the device's low input latency.
}

// AnalysisConfig holds settings for turning blocks into bars.
type AnalysisConfig struct {
	Window        string  `yaml:"fft_window"`     // Window function name ("rectangular", "hann", ...).
	Ceiling       float64 `yaml:"ceiling"`        // Magnitude that maps to a full-height bar.
	GateThreshold float64 `yaml:"gate_threshold"` // Noise gate threshold in [0,1] of full scale (0 disables).
}

// RenderConfig holds settings for the render clock and the local surface.
type RenderConfig struct {
	Interval time.Duration `yaml:"interval"`  // Render tick period.
	BarCount int           `yaml:"bar_count"` // Number of bars.
	Mode     string        `yaml:"mode"`      // "tui" or "headless".
}

// TransportConfig holds settings related to sending frames over the network.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`  // Broadcast frames to websocket clients.
	WebSocketAddress string `yaml:"websocket_address"`  // Listen address for the websocket/metrics server.
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Send frames as UDP packets.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target address and port for UDP packets.
	MetricsEnabled   bool   `yaml:"metrics_enabled"`    // Serve /metrics on the websocket server.
}

// RecordingConfig holds settings related to the WAV tap.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record captured audio while running.
	OutputDir  string `yaml:"output_dir"`  // Directory to save recorded audio files.
	OutputFile string `yaml:"output_file"` // Explicit output file; generated in OutputDir when empty.
	BitDepth   int    `yaml:"bit_depth"`   // Bit depth for recorded audio (16 only).
}

// PreferencesConfig locates the persisted visual preferences.
type PreferencesConfig struct {
	Path string `yaml:"path"` // Settings JSON path (platform default when empty).
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			PreferredKind:   DefaultPreferredKind,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultChannels,
			LowLatency:      DefaultLowLatency,
		},
		Analysis: AnalysisConfig{
			Window:        DefaultWindow,
			Ceiling:       DefaultCeiling,
			GateThreshold: DefaultGateThreshold,
		},
		Render: RenderConfig{
			Interval: DefaultRenderInterval,
			BarCount: DefaultBarCount,
			Mode:     DefaultRenderMode,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultBitDepth,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults.  After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"config.yaml", "visualizer.yaml"}
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
	}

	// Apply environment variable overrides AFTER loading from file.
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every bounded field and reports all violations at once.
func (c *Config) Validate() error {
	var errs []error

	a := c.Audio
	if a.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice))
	}
	switch a.PreferredKind {
	case KindLoopback, KindMicrophone, KindAny:
	default:
		errs = append(errs, fmt.Errorf("audio.preferred_kind %q is not one of loopback, microphone, any", a.PreferredKind))
	}
	if a.SampleRate != 0 && (a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate) {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be 0 or within [%d, %d], got %d", MinSampleRate, MaxSampleRate, a.SampleRate))
	}
	if a.FramesPerBuffer < MinBufferFrames || a.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be within [%d, %d], got %d", MinBufferFrames, MaxBufferFrames, a.FramesPerBuffer))
	}
	if a.InputChannels < 0 || a.InputChannels > 2 {
		errs = append(errs, fmt.Errorf("audio.input_channels must be 0, 1 or 2, got %d", a.InputChannels))
	}

	if !knownWindow(c.Analysis.Window) {
		errs = append(errs, fmt.Errorf("analysis.fft_window %q is unknown", c.Analysis.Window))
	}
	if c.Analysis.Ceiling <= 0 {
		errs = append(errs, fmt.Errorf("analysis.ceiling must be positive, got %g", c.Analysis.Ceiling))
	}
	if c.Analysis.GateThreshold < 0 || c.Analysis.GateThreshold > 1 {
		errs = append(errs, fmt.Errorf("analysis.gate_threshold must be within [0, 1], got %g", c.Analysis.GateThreshold))
	}

	if c.Render.Interval <= 0 {
		errs = append(errs, fmt.Errorf("render.interval must be positive, got %s", c.Render.Interval))
	}
	if c.Render.BarCount < 1 || c.Render.BarCount > MaxBarCount {
		errs = append(errs, fmt.Errorf("render.bar_count must be within [1, %d], got %d", MaxBarCount, c.Render.BarCount))
	}
	switch c.Render.Mode {
	case ModeTUI, ModeHeadless:
	default:
		errs = append(errs, fmt.Errorf("render.mode %q is not one of tui, headless", c.Render.Mode))
	}

	if c.Transport.WebSocketEnabled || c.Transport.MetricsEnabled {
		if !strings.Contains(c.Transport.WebSocketAddress, ":") {
			errs = append(errs, fmt.Errorf("transport.websocket_address %q appears invalid (missing port?)", c.Transport.WebSocketAddress))
		}
	}
	if c.Transport.UDPEnabled && !strings.Contains(c.Transport.UDPTargetAddress, ":") {
		errs = append(errs, fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", c.Transport.UDPTargetAddress))
	}

	if c.Recording.Enabled && c.Recording.BitDepth != 16 {
		errs = append(errs, fmt.Errorf("recording.bit_depth must be 16, got %d", c.Recording.BitDepth))
	}

	return errors.Join(errs...)
}

// knownWindow mirrors the names accepted by analysis.ParseWindowFunc.
func knownWindow(name string) bool {
	switch strings.ToLower(name) {
	case "", "rectangular", "none", "bartletthann", "blackman", "blackmannuttall",
		"hann", "hanning", "hamming", "lanczos", "nuttall":
		return true
	}
	return false
}

// applyEnvOverrides applies VIZ_* environment variables on top of the file values.
// Malformed numeric values are reported rather than silently ignored.
func (cfg *Config) applyEnvOverrides() error {
	// VIZ_LOG_LEVEL
	if val, ok := os.LookupEnv("VIZ_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}

	// VIZ_DEVICE
	if val, ok := os.LookupEnv("VIZ_DEVICE"); ok {
		id, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid VIZ_DEVICE %q: %w", val, err)
		}
		cfg.Audio.InputDevice = id
	}

	// VIZ_BAR_COUNT
	if val, ok := os.LookupEnv("VIZ_BAR_COUNT"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid VIZ_BAR_COUNT %q: %w", val, err)
		}
		cfg.Render.BarCount = n
	}

	// VIZ_RENDER_INTERVAL
	if val, ok := os.LookupEnv("VIZ_RENDER_INTERVAL"); ok {
		dur, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid VIZ_RENDER_INTERVAL %q: %w", val, err)
		}
		cfg.Render.Interval = dur
	}

	// VIZ_WS_ADDRESS
	if val, ok := os.LookupEnv("VIZ_WS_ADDRESS"); ok {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = val
	}

	// VIZ_UDP_ENABLED
	if val, ok := os.LookupEnv("VIZ_UDP_ENABLED"); ok {
		bVal, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid VIZ_UDP_ENABLED %q: %w", val, err)
		}
		cfg.Transport.UDPEnabled = bVal
	}

	// VIZ_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("VIZ_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}

	return nil
}
