package control

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Bounds on the timing fields of Config.
const (
	MinSampleInterval = 500 * time.Millisecond
	MaxSampleInterval = 60 * time.Second
	MinOffDwellFloor  = 500 * time.Millisecond
	MaxOffDwell       = 15 * time.Second
)

// NoHold disables the hold countdown; the session runs until stopped.
const NoHold time.Duration = -1

// HoldMode selects what the hold countdown measures.
type HoldMode string

const (
	// HoldContinuous counts time spent continuously inside the tolerance band.
	HoldContinuous HoldMode = "continuous"
	// HoldWallClock counts time since the session started, regardless of temperature.
	HoldWallClock HoldMode = "wallclock"
)

var (
	ErrInvalidConfig  = errors.New("invalid config")
	ErrAlreadyRunning = errors.New("control loop already running")
	ErrStopped        = errors.New("control loop stopped")
	ErrActuator       = errors.New("actuator failure")
)

// Config is an immutable snapshot of thermostat settings.
// Temperatures are in degrees Celsius.
type Config struct {
	IsHeater   bool
	TargetTemp float64
	// Tolerance is the half-width of the deadband around TargetTemp.
	Tolerance float64
	// HoldDuration is negative when the session should run indefinitely.
	HoldDuration   time.Duration
	HoldMode       HoldMode
	SampleInterval time.Duration
	// MinOffDwell is how long the relay must stay OFF before it may turn ON.
	MinOffDwell time.Duration
}

// DefaultConfig returns a heating config holding 20°C ±1 with no hold.
func DefaultConfig() Config {
	return Config{
		IsHeater:       true,
		TargetTemp:     20,
		Tolerance:      1,
		HoldDuration:   NoHold,
		HoldMode:       HoldContinuous,
		SampleInterval: time.Second,
		MinOffDwell:    2 * time.Second,
	}
}

// HoldEnabled reports whether a hold countdown is configured.
func (c Config) HoldEnabled() bool {
	return c.HoldDuration >= 0
}

// Validate checks every field. It returns an error wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if math.IsNaN(c.TargetTemp) || math.IsInf(c.TargetTemp, 0) {
		return fmt.Errorf("%w: target %v is not a finite temperature", ErrInvalidConfig, c.TargetTemp)
	}
	if math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) || c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %v must be a finite value >= 0", ErrInvalidConfig, c.Tolerance)
	}
	if c.SampleInterval < MinSampleInterval || c.SampleInterval > MaxSampleInterval {
		return fmt.Errorf("%w: sample interval %v outside [%v, %v]",
			ErrInvalidConfig, c.SampleInterval, MinSampleInterval, MaxSampleInterval)
	}
	if c.MinOffDwell < MinOffDwellFloor || c.MinOffDwell > MaxOffDwell {
		return fmt.Errorf("%w: min off dwell %v outside [%v, %v]",
			ErrInvalidConfig, c.MinOffDwell, MinOffDwellFloor, MaxOffDwell)
	}
	switch c.HoldMode {
	case "", HoldContinuous, HoldWallClock:
	default:
		return fmt.Errorf("%w: unknown hold mode %q", ErrInvalidConfig, c.HoldMode)
	}
	return nil
}
