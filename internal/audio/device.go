package audio

import (
	"fmt"
	"strings"
	"time"
)

// DeviceKind is the capability class of an input endpoint.
type DeviceKind int

const (
	KindOther DeviceKind = iota
	KindMicrophone
	KindLoopback
)

func (k DeviceKind) String() string {
	switch k {
	case KindMicrophone:
		return "microphone"
	case KindLoopback:
		return "loopback"
	default:
		return "other"
	}
}

// ParseDeviceKind maps a configuration name to a kind. "any" and unknown
// names return KindOther and false.
func ParseDeviceKind(name string) (DeviceKind, bool) {
	switch strings.ToLower(name) {
	case "microphone", "mic":
		return KindMicrophone, true
	case "loopback", "system":
		return KindLoopback, true
	default:
		return KindOther, false
	}
}

// Device represents an audio input endpoint. It is an immutable snapshot
// taken at enumeration time.
type Device struct {
	ID                      int // Backend device index
	Name                    string
	HostAPI                 string
	MaxInputChannels        int
	DefaultSampleRate       float64
	DefaultLowInputLatency  time.Duration
	DefaultHighInputLatency time.Duration
	IsDefault               bool // Backend default input device
	Kind                    DeviceKind
}

// Classify returns the kind of a device from its name.
// "microphone" wins over the loopback markers.
func Classify(name string) DeviceKind {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "microphone"):
		return KindMicrophone
	case strings.Contains(n, "stereo mix"),
		strings.Contains(n, "loopback"),
		strings.Contains(n, "virtual cable"):
		return KindLoopback
	default:
		return KindOther
	}
}

// StreamConfig describes one capture stream. It is built once per Start and
// never changes for the lifetime of the stream.
type StreamConfig struct {
	Device     Device
	Channels   int // 1 or 2
	SampleRate int // Hz
	BlockSize  int // Frames per callback
	LowLatency bool
}

// DefaultStreamConfig opens min(2, max input channels) at the device's
// default rate.
func DefaultStreamConfig(dev Device, blockSize int) StreamConfig {
	channels := dev.MaxInputChannels
	if channels > 2 {
		channels = 2
	}
	return StreamConfig{
		Device:     dev,
		Channels:   channels,
		SampleRate: int(dev.DefaultSampleRate),
		BlockSize:  blockSize,
	}
}

// Latency returns the input latency to request from the device.
func (c StreamConfig) Latency() time.Duration {
	if c.LowLatency {
		return c.Device.DefaultLowInputLatency
	}
	return c.Device.DefaultHighInputLatency
}

// Validate checks the stream shape, not whether the device exists.
func (c StreamConfig) Validate() error {
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("%w: channels must be 1 or 2, got %d", ErrInvalidStreamConfig, c.Channels)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidStreamConfig, c.SampleRate)
	}
	if c.BlockSize < 2 {
		return fmt.Errorf("%w: block size must be at least 2, got %d", ErrInvalidStreamConfig, c.BlockSize)
	}
	return nil
}

func (c StreamConfig) String() string {
	return fmt.Sprintf("device=%d %q channels=%d rate=%d block=%d",
		c.Device.ID, c.Device.Name, c.Channels, c.SampleRate, c.BlockSize)
}
