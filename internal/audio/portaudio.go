package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Seams over the PortAudio library so device handling can be tested
// without audio hardware.
var (
	paDevicesFunc               = portaudio.Devices
	paLibDefaultInputDeviceFunc = portaudio.DefaultInputDevice
	paOpenStreamFunc            = func(p portaudio.StreamParameters, cb any) (Stream, error) {
		return portaudio.OpenStream(p, cb)
	}
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
// This should be deferred immediately after Initialize().
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// PortAudio is the Backend backed by the PortAudio library. Device IDs are
// indexes into portaudio.Devices().
type PortAudio struct{}

var _ Backend = PortAudio{}

// Devices returns every PortAudio device, including output-only ones.
func (PortAudio) Devices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	defaultInput, err := paLibDefaultInputDeviceFunc()
	if err != nil {
		// No default input is not fatal for listing.
		defaultInput = nil
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = fromDeviceInfo(i, info)
		devices[i].IsDefault = defaultInput != nil && info == defaultInput
	}
	return devices, nil
}

func fromDeviceInfo(id int, info *portaudio.DeviceInfo) Device {
	d := Device{
		ID:                      id,
		Name:                    info.Name,
		MaxInputChannels:        info.MaxInputChannels,
		DefaultSampleRate:       info.DefaultSampleRate,
		DefaultLowInputLatency:  info.DefaultLowInputLatency,
		DefaultHighInputLatency: info.DefaultHighInputLatency,
	}
	if info.HostApi != nil {
		d.HostAPI = info.HostApi.Name
	}
	return d
}

// OpenStream opens an input-only int16 stream on cfg.Device. PortAudio's
// Stop waits for the running callback to return, which Engine relies on.
func (PortAudio) OpenStream(cfg StreamConfig, cb Callback) (Stream, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	if cfg.Device.ID < 0 || cfg.Device.ID >= len(infos) {
		return nil, fmt.Errorf("%w: invalid device ID: %d", ErrDeviceNotFound, cfg.Device.ID)
	}
	info := infos[cfg.Device.ID]
	if info.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("%w: device %d (%s) does not support input", ErrNoInputChannels, cfg.Device.ID, info.Name)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: cfg.Channels,
			Latency:  cfg.Latency(),
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: cfg.BlockSize,
		SampleRate:      float64(cfg.SampleRate),
	}

	callback := func(in []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		cb(in, StatusFlags(flags))
	}

	stream, err := paOpenStreamFunc(params, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	return stream, nil
}
