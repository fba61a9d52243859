//go:build !linux

package device

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// HardwareRelay is not available on non-Linux platforms.
type HardwareRelay struct{}

// NewHardwareRelay returns an error on non-Linux platforms.
func NewHardwareRelay(chipName string, pin int, activeLow bool) (*HardwareRelay, error) {
	return nil, errUnsupported
}

func (r *HardwareRelay) SetOn() error { return errUnsupported }
func (r *HardwareRelay) SetOff() error { return errUnsupported }
func (r *HardwareRelay) IsOn() bool { return false }
func (r *HardwareRelay) Release() error { return nil }

// HardwareSensor is not available on non-Linux platforms.
type HardwareSensor struct{}

// NewHardwareSensor returns an error on non-Linux platforms.
func NewHardwareSensor(chipName string, pinCS, pinCLK, pinDO int) (*HardwareSensor, error) {
	return nil, errUnsupported
}

func (s *HardwareSensor) Read(ctx context.Context) (float64, error) { return 0, errUnsupported }
func (s *HardwareSensor) Close() error { return nil }
