package audio

import (
	"fmt"
)

// Catalog enumerates and classifies input devices. It does not cache: the
// device set can change between calls (a USB device unplugged).
type Catalog struct {
	backend Backend
}

// NewCatalog returns a Catalog over backend.
func NewCatalog(backend Backend) *Catalog {
	return &Catalog{backend: backend}
}

// Enumerate returns every device with at least one input channel, classified.
// Backend failures are returned as *EnumerationError.
func (c *Catalog) Enumerate() ([]Device, error) {
	all, err := c.backend.Devices()
	if err != nil {
		return nil, &EnumerationError{Err: err}
	}

	devices := make([]Device, 0, len(all))
	for _, d := range all {
		if d.MaxInputChannels <= 0 {
			continue
		}
		d.Kind = Classify(d.Name)
		devices = append(devices, d)
	}
	return devices, nil
}

// Lookup enumerates and returns the input device with the given id.
func (c *Catalog) Lookup(id int) (Device, error) {
	devices, err := c.Enumerate()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.ID == id {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
}

// SelectDefault returns the first candidate of the preferred kind.
func SelectDefault(candidates []Device, preferred DeviceKind) (Device, bool) {
	for _, d := range candidates {
		if d.Kind == preferred {
			return d, true
		}
	}
	return Device{}, false
}

// SelectAuto tries each kind in order, then the backend default input.
func SelectAuto(candidates []Device, order ...DeviceKind) (Device, bool) {
	for _, kind := range order {
		if d, ok := SelectDefault(candidates, kind); ok {
			return d, true
		}
	}
	for _, d := range candidates {
		if d.IsDefault {
			return d, true
		}
	}
	return Device{}, false
}
