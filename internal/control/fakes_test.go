package control

import (
	"context"
	"errors"
	"sync"
	"time"
)

// scriptedSensor returns scripted readings; an entry with err set fails.
// After the script is exhausted the last entry repeats.
type scriptedSensor struct {
	mu       sync.Mutex
	readings []reading
	index    int
	closed   int
}

type reading struct {
	temp float64
	err  error
}

func temps(values ...float64) []reading {
	out := make([]reading, len(values))
	for i, v := range values {
		out[i] = reading{temp: v}
	}
	return out
}

func (s *scriptedSensor) Read(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(s.readings) == 0 {
		return 0, errors.New("no readings scripted")
	}
	r := s.readings[s.index]
	if s.index < len(s.readings)-1 {
		s.index++
	}
	return r.temp, r.err
}

func (s *scriptedSensor) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

// recordingRelay records every command and the time it was sent.
type recordingRelay struct {
	mu       sync.Mutex
	on       bool
	clock    *fakeClock
	calls    []relayCall
	onErr    error
	offErr   error
	released int
}

type relayCall struct {
	on bool
	at time.Time
}

func (r *recordingRelay) SetOn() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onErr != nil {
		return r.onErr
	}
	r.on = true
	r.calls = append(r.calls, relayCall{on: true, at: r.clock.Now()})
	return nil
}

func (r *recordingRelay) SetOff() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offErr != nil {
		return r.offErr
	}
	r.on = false
	r.calls = append(r.calls, relayCall{on: false, at: r.clock.Now()})
	return nil
}

func (r *recordingRelay) IsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

func (r *recordingRelay) Release() error {
	r.mu.Lock()
	r.released++
	r.mu.Unlock()
	return nil
}

func (r *recordingRelay) history() []relayCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]relayCall(nil), r.calls...)
}

// fakeClock is a settable clock. Safe for concurrent use.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// manualTimer hands control of inter-tick waits to the test.
type manualTimer struct {
	waits chan chan time.Time
}

func newManualTimer() *manualTimer {
	return &manualTimer{waits: make(chan chan time.Time, 16)}
}

func (m *manualTimer) timer(time.Duration) (<-chan time.Time, func() bool) {
	ch := make(chan time.Time, 1)
	m.waits <- ch
	return ch, func() bool { return true }
}

func testConfig() Config {
	return Config{
		IsHeater:       true,
		TargetTemp:     20,
		Tolerance:      2,
		HoldDuration:   NoHold,
		HoldMode:       HoldContinuous,
		SampleInterval: time.Second,
		MinOffDwell:    2 * time.Second,
	}
}
