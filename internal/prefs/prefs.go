// Package prefs persists the user's visual preferences between runs in the
// settings.json.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"visualizer/internal/config"
)

// ErrCorrupt is returned with default preferences when the file exists but
// cannot be decoded.
var ErrCorrupt = errors.New("preferences file is corrupt")

// Preferences is the on-disk record. Colours are "#RRGGBB".
type Preferences struct {
	Color1      string  `json:"color1"`
	Color2      string  `json:"color2"`
	Sensitivity float64 `json:"sensitivity"`
	Device      string  `json:"device,omitempty"`    // Device name; IDs are not stable across runs
	BarCount    int     `json:"bar_count,omitempty"` // 0 keeps the configured count
}

// Default returns the preferences matching config.NewVisual.
func Default() Preferences {
	return Preferences{
		Color1:      config.DefaultColorStart.Hex(),
		Color2:      config.DefaultColorEnd.Hex(),
		Sensitivity: config.DefaultSensitivity,
	}
}

// Capture reads the current visual settings into a Preferences record.
func Capture(v *config.Visual, deviceName string) Preferences {
	s := v.Snapshot()
	return Preferences{
		Color1:      s.ColorStart.Hex(),
		Color2:      s.ColorEnd.Hex(),
		Sensitivity: s.Sensitivity,
		Device:      deviceName,
		BarCount:    s.BarCount,
	}
}

// Apply pushes p into v. Invalid fields are skipped and reported together;
// valid ones are still applied.
func (p Preferences) Apply(v *config.Visual) error {
	var errs []error

	start, end := v.Colors()
	if c, err := config.ParseHex(p.Color1); err != nil {
		errs = append(errs, fmt.Errorf("color1: %w", err))
	} else {
		start = c
	}
	if c, err := config.ParseHex(p.Color2); err != nil {
		errs = append(errs, fmt.Errorf("color2: %w", err))
	} else {
		end = c
	}
	v.SetColors(start, end)

	if err := v.SetSensitivity(p.Sensitivity); err != nil {
		errs = append(errs, err)
	}
	if p.BarCount != 0 {
		if err := v.SetBarCount(p.BarCount); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Store reads and writes one preferences file.
type Store struct {
	path string
}

// NewStore returns a store at path, or at DefaultPath when path is empty.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the file location.
func (s *Store) Path() string { return s.path }

// Load reads the preferences. A missing file yields the defaults and no
// error. An unreadable or corrupt file yields the defaults and an error
// wrapping ErrCorrupt, which callers may log and ignore.
func (s *Store) Load() (Preferences, error) {
	p := Default()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read preferences: %w", err)
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return p, nil
}

// Save writes p, creating the directory if needed.
func (s *Store) Save(p Preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	// Write then rename so a crash never leaves a half-written file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// DefaultPath returns the platform-specific preferences file path.
func DefaultPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "visualizer", "settings.json")
}
