// Package control contains the thermostat control loop: the hysteresis
// decision, the minimum-off dwell guard, the hold countdown and the sampling
// scheduler that drives them.
// This package does no I/O of its own. Sensors and relays are reached only
// through the TemperatureSource and PowerActuator interfaces, and time is
// always injectable.
package control

import (
	"context"
	"time"
)

// RelayState represents the commanded state of the relay.
type RelayState string

const (
	RelayOn  RelayState = "ON"
	RelayOff RelayState = "OFF"
)

// Phase is the lifecycle phase of a control session.
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseRunning Phase = "RUNNING"
	PhaseHolding Phase = "HOLDING"
	PhaseStopped Phase = "STOPPED"
)

// active reports whether ticks are being scheduled in this phase.
func (p Phase) active() bool {
	return p == PhaseRunning || p == PhaseHolding
}

// Command is the outcome of the decision pipeline for one tick.
type Command int

const (
	NoChange Command = iota
	TurnOn
	TurnOff
)

func (c Command) String() string {
	switch c {
	case TurnOn:
		return "ON"
	case TurnOff:
		return "OFF"
	default:
		return "NO_CHANGE"
	}
}

// Unbounded is returned by TimeRemaining when no hold countdown is active.
const Unbounded time.Duration = -1

// TemperatureSource produces temperature readings in degrees Celsius.
type TemperatureSource interface {
	// Read returns the current temperature. Implementations must give up
	// when ctx is done.
	Read(ctx context.Context) (float64, error)

	// Close releases sensor resources.
	Close() error
}

// PowerActuator switches the relay.
// SetOn and SetOff are idempotent and must not block indefinitely.
type PowerActuator interface {
	SetOn() error
	SetOff() error
	IsOn() bool

	// Release returns the relay to a safe state and frees its resources.
	Release() error
}

// Snapshot is a read-only, point-in-time view of a control session.
// It is a value type and never aliases loop state.
type Snapshot struct {
	Session     string
	Tick        uint64
	Timestamp   time.Time
	CurrentTemp float64
	HasReading  bool // false until the first successful read
	TargetTemp  float64
	Tolerance   float64
	IsHeater    bool
	Relay       RelayState
	Phase       Phase
	// Issued is the command actually sent to the relay on this tick.
	Issued        Command
	HoldElapsed   time.Duration
	TimeRemaining time.Duration
	// ReadErr is a non-fatal sensor failure; the tick's decision was skipped.
	ReadErr error
	// Err is a fatal actuator failure; the session is stopped.
	Err error
}

// Observer is called once per completed tick with the resulting snapshot.
type Observer func(Snapshot)
