package device

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// SimulatedRelay is an in-memory relay.
type SimulatedRelay struct {
	mu       sync.Mutex
	on       bool
	switches int
	released bool
}

// NewSimulatedRelay creates a relay that starts OFF.
func NewSimulatedRelay() *SimulatedRelay {
	return &SimulatedRelay{}
}

func (r *SimulatedRelay) SetOn() error {
	return r.set(true)
}

func (r *SimulatedRelay) SetOff() error {
	return r.set(false)
}

func (r *SimulatedRelay) set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return errors.New("relay released")
	}
	if r.on != on {
		r.switches++
	}
	r.on = on
	return nil
}

func (r *SimulatedRelay) IsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

// Switches returns how many times the relay changed state.
func (r *SimulatedRelay) Switches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.switches
}

func (r *SimulatedRelay) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.on = false
	r.released = true
	return nil
}

// SimulatedSensor models a volume that the relay heats (or cools) at a fixed
// rate while ON and that otherwise drifts exponentially toward ambient.
type SimulatedSensor struct {
	mu      sync.Mutex
	relay   interface{ IsOn() bool }
	heater  bool
	temp    float64
	ambient float64
	rate    float64 // °C per second while the relay is ON
	tau     time.Duration
	now     func() time.Time
	last    time.Time
	closed  bool
}

// NewSimulatedSensor creates a sensor coupled to relay, starting at start °C.
func NewSimulatedSensor(relay interface{ IsOn() bool }, heater bool, start float64, options ...func(*SimulatedSensor)) *SimulatedSensor {
	s := &SimulatedSensor{
		relay:   relay,
		heater:  heater,
		temp:    start,
		ambient: start,
		rate:    0.1,
		tau:     30 * time.Minute,
		now:     time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// WithAmbient sets the temperature the volume drifts toward
func WithAmbient(celsius float64) func(*SimulatedSensor) {
	return func(s *SimulatedSensor) {
		s.ambient = celsius
	}
}

// WithRate sets the heating or cooling rate in °C per second
func WithRate(perSecond float64) func(*SimulatedSensor) {
	return func(s *SimulatedSensor) {
		s.rate = perSecond
	}
}

// WithDriftConstant sets the time constant of the drift toward ambient
func WithDriftConstant(tau time.Duration) func(*SimulatedSensor) {
	return func(s *SimulatedSensor) {
		s.tau = tau
	}
}

// WithSimClock sets the simulation time source
func WithSimClock(now func() time.Time) func(*SimulatedSensor) {
	return func(s *SimulatedSensor) {
		s.now = now
	}
}

// Read advances the model to the current time and returns its temperature.
func (s *SimulatedSensor) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("sensor closed")
	}

	now := s.now()
	if !s.last.IsZero() {
		dt := now.Sub(s.last).Seconds()
		if s.tau > 0 {
			s.temp = s.ambient + (s.temp-s.ambient)*math.Exp(-dt/s.tau.Seconds())
		}
		if s.relay.IsOn() {
			if s.heater {
				s.temp += s.rate * dt
			} else {
				s.temp -= s.rate * dt
			}
		}
	}
	s.last = now
	return s.temp, nil
}

func (s *SimulatedSensor) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
