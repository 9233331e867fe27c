// SPDX-License-Identifier: MIT
/*
Package control is the surface a user interface drives: it lists devices,
applies setting changes to the shared visual settings, persists them and
runs the engine lifecycle. It runs on the control goroutine, never on the
capture callback or the render loop.
*/
package control

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"visualizer/internal/audio"
	"visualizer/internal/config"
	"visualizer/internal/log"
	"visualizer/internal/prefs"
)

var (
	ErrInvalidSensitivity = config.ErrInvalidSensitivity
	ErrInvalidBarCount    = config.ErrInvalidBarCount
	ErrNoDevice           = errors.New("no usable input device")
)

// Engine is the lifecycle the controller drives.
type Engine interface {
	Start(cfg audio.StreamConfig) error
	Stop() error
	State() audio.State
}

// Options shapes the streams the controller opens. Zero values fall back to
// the device defaults.
type Options struct {
	BlockSize  int // Frames per callback; 0 means config.DefaultFramesPerBuffer.
	SampleRate int
	Channels   int
	LowLatency bool
	Preferred  []audio.DeviceKind // Auto-selection order
	Prefs      *prefs.Store       // nil disables persistence
	Logger     *zerolog.Logger
}

// Controller implements the control operations.
type Controller struct {
	catalog *audio.Catalog
	engine  Engine
	visual  *config.Visual
	opts    Options
	log     zerolog.Logger

	mu         sync.Mutex // Serialises lifecycle operations and device state.
	deviceName string     // Name of the selected device, for persistence.
}

// New returns a controller over catalog and engine writing visual.
func New(catalog *audio.Catalog, engine Engine, visual *config.Visual, opts Options) *Controller {
	if opts.BlockSize <= 0 {
		opts.BlockSize = config.DefaultFramesPerBuffer
	}
	if opts.Preferred == nil {
		opts.Preferred = []audio.DeviceKind{audio.KindLoopback, audio.KindMicrophone}
	}
	c := &Controller{
		catalog: catalog,
		engine:  engine,
		visual:  visual,
		opts:    opts,
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	} else {
		c.log = log.Component("control")
	}
	return c
}

// Restore loads the persisted preferences into the visual settings and
// selects the remembered device by name if it is still present. Problems
// are logged, never fatal.
func (c *Controller) Restore() {
	if c.opts.Prefs == nil {
		return
	}
	p, err := c.opts.Prefs.Load()
	if err != nil {
		c.log.Warn().Err(err).Msg("Ignoring preferences file")
	}
	if err := p.Apply(c.visual); err != nil {
		c.log.Warn().Err(err).Msg("Some preferences were not applied")
	}
	if p.Device == "" || c.visual.SelectedDevice() != config.NoDevice {
		return
	}

	devices, err := c.catalog.Enumerate()
	if err != nil {
		c.log.Warn().Err(err).Msg("Could not list devices to restore selection")
		return
	}
	for _, d := range devices {
		if d.Name == p.Device {
			c.mu.Lock()
			c.visual.SetSelectedDevice(d.ID)
			c.deviceName = d.Name
			c.mu.Unlock()
			return
		}
	}
	c.log.Info().Str("device", p.Device).Msg("Remembered device is not present")
}

// ListDevices returns the input devices currently available.
func (c *Controller) ListDevices() ([]audio.Device, error) {
	return c.catalog.Enumerate()
}

// SelectDevice makes id the selected device and restarts capture on it.
func (c *Controller) SelectDevice(id int) error {
	dev, err := c.catalog.Lookup(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.visual.SetSelectedDevice(dev.ID)
	c.deviceName = dev.Name
	err = c.startLocked(dev)
	c.mu.Unlock()

	c.persist()
	return err
}

// Start starts capture on the selected device, or on an automatically
// chosen one when nothing is selected.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.resolveLocked()
	if err != nil {
		return fmt.Errorf("could not start: %w", err)
	}
	return c.startLocked(dev)
}

func (c *Controller) resolveLocked() (audio.Device, error) {
	if id := c.visual.SelectedDevice(); id != config.NoDevice {
		return c.catalog.Lookup(id)
	}

	devices, err := c.catalog.Enumerate()
	if err != nil {
		return audio.Device{}, err
	}
	dev, ok := audio.SelectAuto(devices, c.opts.Preferred...)
	if !ok {
		return audio.Device{}, ErrNoDevice
	}
	c.log.Info().Str("device", dev.Name).Str("kind", dev.Kind.String()).Msg("Auto-selected input device")
	return dev, nil
}

func (c *Controller) startLocked(dev audio.Device) error {
	if err := c.engine.Start(c.streamConfig(dev)); err != nil {
		c.log.Error().Err(err).Msg("Could not start capture")
		return fmt.Errorf("could not start: %w", err)
	}
	return nil
}

// streamConfig applies the configured overrides to the device defaults.
func (c *Controller) streamConfig(dev audio.Device) audio.StreamConfig {
	cfg := audio.DefaultStreamConfig(dev, c.opts.BlockSize)
	if c.opts.SampleRate > 0 {
		cfg.SampleRate = c.opts.SampleRate
	}
	if c.opts.Channels > 0 && c.opts.Channels <= dev.MaxInputChannels {
		cfg.Channels = c.opts.Channels
	}
	cfg.LowLatency = c.opts.LowLatency
	return cfg
}

// Stop stops capture. It is a no-op when already stopped.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Stop()
}

// Toggle stops capture when running and starts it otherwise.
func (c *Controller) Toggle() error {
	if c.State() == audio.StateRunning {
		return c.Stop()
	}
	return c.Start()
}

// State returns the engine state.
func (c *Controller) State() audio.State {
	return c.engine.State()
}

// SetSensitivity changes the bar multiplier. It applies from the next block.
func (c *Controller) SetSensitivity(s float64) error {
	if err := c.visual.SetSensitivity(s); err != nil {
		return err
	}
	c.persist()
	return nil
}

// ScaleSensitivity multiplies the sensitivity by factor and returns the new
// value.
func (c *Controller) ScaleSensitivity(factor float64) (float64, error) {
	s := c.visual.Sensitivity() * factor
	if err := c.SetSensitivity(s); err != nil {
		return c.visual.Sensitivity(), err
	}
	return s, nil
}

// SetColors changes the gradient endpoints. It applies from the next tick.
func (c *Controller) SetColors(start, end config.RGB) {
	c.visual.SetColors(start, end)
	c.persist()
}

// SetBarCount changes the number of bars. It applies from the next block.
func (c *Controller) SetBarCount(n int) error {
	if err := c.visual.SetBarCount(n); err != nil {
		return err
	}
	c.persist()
	return nil
}

// Visual returns the settings the controller writes.
func (c *Controller) Visual() *config.Visual {
	return c.visual
}

func (c *Controller) persist() {
	if c.opts.Prefs == nil {
		return
	}
	c.mu.Lock()
	name := c.deviceName
	c.mu.Unlock()

	if err := c.opts.Prefs.Save(prefs.Capture(c.visual, name)); err != nil {
		c.log.Warn().Err(err).Msg("Could not save preferences")
	}
}
