package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"visualizer/cmd"
	"visualizer/internal/analysis"
	"visualizer/internal/audio"
	"visualizer/internal/config"
	"visualizer/internal/control"
	"visualizer/internal/log"
	"visualizer/internal/metrics"
	"visualizer/internal/prefs"
	"visualizer/internal/render"
	"visualizer/internal/spectrum"
	"visualizer/internal/transport"
	"visualizer/internal/transport/udp"
	"visualizer/internal/tui"
	"visualizer/pkg/build"
)

// main is the entry point for the spectrum visualizer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and configuration
//   - Initialize logging and PortAudio
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the spectrum engine on the selected device
//   - Start recording if enabled
//   - Start the render clock feeding the terminal UI and network sinks
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals or UI exit
//   - Stop the render clock, then the engine and recording
//   - Clean up resources
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Missing ldflags only mean a development build.
	buildErr := build.Initialize()

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		return err
	}
	if !opts.Run {
		return nil // Help or version was printed
	}
	cfg := opts.Config
	tuiMode := opts.Command == "" && cfg.Render.Mode == config.ModeTUI

	level, ok := log.ParseLevel(cfg.LogLevel)
	closeLog, err := log.Setup(log.Options{
		Level:   level,
		File:    cfg.LogFile,
		Console: !tuiMode, // The terminal belongs to the UI
	})
	if err != nil {
		return err
	}
	defer closeLog()
	if !ok {
		log.Warnf("Unknown log level %q, using %s", cfg.LogLevel, level)
	}
	if buildErr != nil {
		log.Debugf("Development build: %v", buildErr)
	}

	// Initialize PortAudio subsystem
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := audio.Terminate(); err != nil {
			log.Errorf("%v", err)
		}
	}()

	backend := audio.PortAudio{}
	catalog := audio.NewCatalog(backend)

	// Handle one-off commands (e.g., device listing) that don't require
	// the engine to be running
	if opts.Command != "" {
		return executeCommand(opts.Command, catalog)
	}

	m, err := metrics.New()
	if err != nil {
		return err
	}

	window, err := analysis.ParseWindowFunc(cfg.Analysis.Window)
	if err != nil {
		return err
	}

	visual := config.NewVisual()
	if err := visual.SetBarCount(cfg.Render.BarCount); err != nil {
		return err
	}
	if cfg.Audio.InputDevice >= 0 {
		visual.SetSelectedDevice(cfg.Audio.InputDevice)
	}

	cell := spectrum.NewCell()
	engine := audio.NewEngine(backend, cell, visual, audio.Options{
		Window:        window,
		Ceiling:       cfg.Analysis.Ceiling,
		GateThreshold: cfg.Analysis.GateThreshold,
		Metrics:       m,
	})

	ctrl := control.New(catalog, engine, visual, control.Options{
		BlockSize:  cfg.Audio.FramesPerBuffer,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.InputChannels,
		LowLatency: cfg.Audio.LowLatency,
		Preferred:  preferredKinds(cfg.Audio.PreferredKind),
		Prefs:      prefs.NewStore(cfg.Preferences.Path),
	})
	ctrl.Restore()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if err := ctrl.Start(); err != nil {
		if !tuiMode {
			return err
		}
		// The device screen can still pick a working input.
		log.Errorf("%v", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Errorf("Error closing audio engine: %v", err)
		}
	}()

	if cfg.Recording.Enabled && engine.State() == audio.StateRunning {
		path := cmd.RecordingPath(cfg.Recording, time.Now())
		if err := engine.StartRecording(path); err != nil {
			return err
		}
		defer func() {
			if err := engine.StopRecording(); err != nil {
				log.Errorf("Error stopping recording: %v", err)
			}
			fmt.Printf("Recording saved to: %s\n", path)
		}()
	}

	renderers, closers, err := openSinks(cfg, m)
	if err != nil {
		return err
	}
	defer closeAll(closers)

	var program *tea.Program
	if tuiMode {
		program = tea.NewProgram(tui.NewModel(ctrl), tea.WithAltScreen())
		renderers = append(renderers, tui.NewRenderer(program))
	} else if len(renderers) == 0 {
		renderers = append(renderers, transport.NewLoggingRenderer())
	}

	clock := render.NewClock(cell, visual, renderers, render.ClockOptions{
		Interval: cfg.Render.Interval,
		Metrics:  m,
	})
	clock.Start()
	defer clock.Close()

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	if program != nil {
		go func() {
			if _, ok := <-done; ok {
				program.Quit()
			}
		}()
		if _, err := program.Run(); err != nil {
			return err
		}
	} else {
		log.Infof("Running headless, press Ctrl+C to stop")
		<-done
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================
	// Deferred in reverse: clock, sinks, recording, engine, PortAudio, log.
	return nil
}

// preferredKinds maps the configured preference to an auto-selection order.
func preferredKinds(name string) []audio.DeviceKind {
	switch name {
	case config.KindMicrophone:
		return []audio.DeviceKind{audio.KindMicrophone, audio.KindLoopback}
	case config.KindAny:
		return []audio.DeviceKind{} // Backend default only
	default:
		return []audio.DeviceKind{audio.KindLoopback, audio.KindMicrophone}
	}
}

// openSinks starts the configured network sinks. The websocket server is
// started for /metrics alone too, but then does not render.
func openSinks(cfg *config.Config, m *metrics.Metrics) (render.Multi, []io.Closer, error) {
	var (
		renderers render.Multi
		closers   []io.Closer
	)
	t := cfg.Transport

	if t.WebSocketEnabled || t.MetricsEnabled {
		handlers := map[string]http.Handler{}
		if t.MetricsEnabled {
			handlers["/metrics"] = m.Handler()
		}
		ws := transport.NewWebSocketRenderer(t.WebSocketAddress, handlers)
		if err := ws.Start(); err != nil {
			return nil, nil, err
		}
		closers = append(closers, ws)
		if t.WebSocketEnabled {
			renderers = append(renderers, ws)
		}
	}

	if t.UDPEnabled {
		sender, err := udp.NewUDPSender(t.UDPTargetAddress)
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		r := udp.NewRenderer(sender)
		closers = append(closers, r)
		renderers = append(renderers, r)
	}

	return renderers, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Errorf("Error closing sink: %v", err)
		}
	}
}

// executeCommand handles one-off commands that don't require the engine
// to be running, such as listing available input devices.
func executeCommand(command string, catalog *audio.Catalog) error {
	switch command {
	case "list":
		devices, err := catalog.Enumerate()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No input devices found.")
			return nil
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "NAME", "KIND", "CHANNELS", "RATE", "DEFAULT")
		for _, d := range devices {
			def := ""
			if d.IsDefault {
				def = "*"
			}
			t.Row(strconv.Itoa(d.ID), d.Name, d.Kind.String(),
				strconv.Itoa(d.MaxInputChannels), fmt.Sprintf("%.0f", d.DefaultSampleRate), def)
		}
		fmt.Println(t.String())
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
