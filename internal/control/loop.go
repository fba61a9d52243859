package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Loop is a single thermostat control session. It samples the sensor every
// SampleInterval, decides a relay command and applies it. A Loop runs at
// most once; after Stop it cannot be restarted.
type Loop struct {
	sensor    TemperatureSource
	relay     PowerActuator
	logger    *zap.SugaredLogger
	now       func() time.Time
	timer     func(time.Duration) (<-chan time.Time, func() bool)
	observers []Observer

	// mu guards everything below. It is never held across a sensor read.
	mu          sync.Mutex
	cfg         Config
	session     string
	phase       Phase
	relayState  RelayState
	currentTemp float64
	hasReading  bool
	ticks       uint64
	guard       ChatterGuard
	hold        HoldTimer
	cancel      context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// New creates an idle Loop. The relay's current state is taken as the
// starting state; the dwell guard starts with no recorded OFF transition.
func New(cfg Config, sensor TemperatureSource, relay PowerActuator, options ...Option) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sensor == nil || relay == nil {
		return nil, errors.New("control: sensor and relay are required")
	}

	l := &Loop{
		sensor: sensor,
		relay:  relay,
		logger: zap.NewNop().Sugar(),
		now:    time.Now,
		timer:  realTimer,
		cfg:    cfg,
		phase:  PhaseIdle,
	}
	for _, option := range options {
		option(l)
	}
	if l.session == "" {
		l.session = uuid.NewString()
	}

	l.relayState = RelayOff
	if relay.IsOn() {
		l.relayState = RelayOn
	}
	return l, nil
}

// Run starts the session and blocks until it ends: Stop was called, ctx was
// cancelled, the hold completed, or the relay failed. The first tick happens
// immediately. Ticks never overlap: the next one is scheduled only after the
// current one has finished. The relay and sensor are released before Run
// returns. A relay failure is returned wrapping ErrActuator.
func (l *Loop) Run(ctx context.Context) (err error) {
	runCtx, err := l.start(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := l.Close(); err == nil {
			err = cerr
		}
	}()

	for {
		if err := l.tick(runCtx); err != nil {
			return err
		}

		l.mu.Lock()
		active := l.phase.active()
		interval := l.cfg.SampleInterval
		l.mu.Unlock()
		if !active {
			return nil
		}

		wait, cancel := l.timer(interval)
		select {
		case <-runCtx.Done():
			cancel()
			return l.Stop()
		case <-wait:
		}
	}
}

func (l *Loop) start(ctx context.Context) (context.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.phase {
	case PhaseRunning, PhaseHolding:
		return nil, ErrAlreadyRunning
	case PhaseStopped:
		return nil, ErrStopped
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.phase = PhaseRunning
	l.hold.Reset(l.now())

	l.logger.Infow("control session started",
		"session", l.session,
		"heater", l.cfg.IsHeater,
		"target", l.cfg.TargetTemp,
		"tolerance", l.cfg.Tolerance,
		"interval", l.cfg.SampleInterval,
		"min_off", l.cfg.MinOffDwell,
		"hold", l.cfg.HoldDuration,
	)
	return runCtx, nil
}

// tick runs one read-decide-apply cycle and notifies observers.
// It returns a non-nil error only for a fatal relay failure.
func (l *Loop) tick(ctx context.Context) error {
	l.mu.Lock()
	if !l.phase.active() {
		l.mu.Unlock()
		return nil
	}
	timeout := l.cfg.SampleInterval
	l.mu.Unlock()

	readCtx, cancel := context.WithTimeout(ctx, timeout)
	temp, readErr := l.sensor.Read(readCtx)
	cancel()

	if ctx.Err() != nil {
		// Run is shutting down; the read failed because of it.
		return nil
	}

	l.mu.Lock()
	if !l.phase.active() {
		// Stopped while the read was outstanding.
		l.mu.Unlock()
		return nil
	}

	now := l.now()
	cfg := l.cfg
	l.ticks++

	issued := NoChange
	var fatal error
	if readErr != nil {
		l.logger.Warnw("sensor read failed", "session", l.session, "tick", l.ticks, "error", readErr)
	} else {
		l.currentTemp = temp
		l.hasReading = true
		desired := Decide(temp, cfg)
		permitted := l.guard.Permit(desired, now, cfg.MinOffDwell)
		if permitted != desired {
			l.logger.Debugw("relay on deferred by min off dwell", "session", l.session, "temp", temp)
		}
		issued, fatal = l.apply(permitted, now)
	}

	if fatal != nil {
		l.logger.Errorw("relay failure, stopping", "session", l.session, "error", fatal)
		if err := l.stopLocked(now); err != nil {
			fatal = errors.Join(fatal, err)
		}
	} else {
		inBand := readErr == nil && InBand(temp, cfg)
		if l.hold.Advance(now, inBand, readErr == nil, cfg) {
			l.logger.Infow("hold complete", "session", l.session, "held", l.hold.Elapsed())
			if err := l.stopLocked(now); err != nil {
				fatal = err
			}
		} else if cfg.HoldEnabled() && l.hold.Elapsed() > 0 {
			l.phase = PhaseHolding
		} else {
			l.phase = PhaseRunning
		}
	}

	snap := l.snapshotLocked(now)
	snap.Issued = issued
	snap.ReadErr = readErr
	snap.Err = fatal
	l.mu.Unlock()

	l.logger.Debugw("tick",
		"session", snap.Session,
		"tick", snap.Tick,
		"temp", snap.CurrentTemp,
		"relay", snap.Relay,
		"phase", snap.Phase,
		"issued", snap.Issued,
	)
	for _, fn := range l.observers {
		fn(snap)
	}
	return fatal
}

// apply sends cmd to the relay if it changes the relay state.
func (l *Loop) apply(cmd Command, now time.Time) (Command, error) {
	switch cmd {
	case TurnOn:
		if l.relayState == RelayOn {
			return NoChange, nil
		}
		if err := l.relay.SetOn(); err != nil {
			return NoChange, fmt.Errorf("%w: set on: %w", ErrActuator, err)
		}
		l.relayState = RelayOn
		l.logger.Infow("relay on", "session", l.session, "temp", l.currentTemp)
		return TurnOn, nil

	case TurnOff:
		if l.relayState == RelayOff {
			return NoChange, nil
		}
		if err := l.relay.SetOff(); err != nil {
			return NoChange, fmt.Errorf("%w: set off: %w", ErrActuator, err)
		}
		l.relayState = RelayOff
		l.guard.MarkOff(now)
		l.logger.Infow("relay off", "session", l.session, "temp", l.currentTemp)
		return TurnOff, nil
	}
	return NoChange, nil
}

// Stop ends the session and forces the relay OFF before returning. It is
// safe to call from any goroutine, in any phase, any number of times.
func (l *Loop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopLocked(l.now())
}

func (l *Loop) stopLocked(now time.Time) error {
	if l.phase == PhaseStopped {
		return nil
	}
	l.phase = PhaseStopped
	if l.cancel != nil {
		l.cancel()
	}

	// OFF is sent even when the relay is believed OFF.
	if err := l.relay.SetOff(); err != nil {
		l.logger.Errorw("relay off failed during stop", "session", l.session, "error", err)
		return fmt.Errorf("%w: set off: %w", ErrActuator, err)
	}
	if l.relayState == RelayOn {
		l.guard.MarkOff(now)
	}
	l.relayState = RelayOff
	l.logger.Infow("control session stopped", "session", l.session, "ticks", l.ticks)
	return nil
}

// Close stops the session and releases the relay and the sensor. The
// release happens once; later calls return the first result.
func (l *Loop) Close() error {
	stopErr := l.Stop()
	l.closeOnce.Do(func() {
		l.closeErr = errors.Join(l.relay.Release(), l.sensor.Close())
	})
	return errors.Join(stopErr, l.closeErr)
}

// UpdateOptions atomically replaces the active config. An invalid config is
// rejected and the previous one stays active. The dwell guard keeps its
// history; the hold countdown restarts.
func (l *Loop) UpdateOptions(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == PhaseStopped {
		return ErrStopped
	}

	l.cfg = cfg
	l.hold.Reset(l.now())
	if l.phase == PhaseHolding {
		l.phase = PhaseRunning
	}
	l.logger.Infow("config updated",
		"session", l.session,
		"heater", cfg.IsHeater,
		"target", cfg.TargetTemp,
		"tolerance", cfg.Tolerance,
	)
	return nil
}

// TimeRemaining returns the time left in the hold countdown, or Unbounded
// when no hold is configured or the session is not running.
func (l *Loop) TimeRemaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timeRemainingLocked()
}

func (l *Loop) timeRemainingLocked() time.Duration {
	if !l.phase.active() {
		return Unbounded
	}
	return l.hold.Remaining(l.cfg)
}

// Snapshot returns the current state of the session.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked(l.now())
}

func (l *Loop) snapshotLocked(now time.Time) Snapshot {
	return Snapshot{
		Session:       l.session,
		Tick:          l.ticks,
		Timestamp:     now,
		CurrentTemp:   l.currentTemp,
		HasReading:    l.hasReading,
		TargetTemp:    l.cfg.TargetTemp,
		Tolerance:     l.cfg.Tolerance,
		IsHeater:      l.cfg.IsHeater,
		Relay:         l.relayState,
		Phase:         l.phase,
		HoldElapsed:   l.hold.Elapsed(),
		TimeRemaining: l.timeRemainingLocked(),
	}
}

// Config returns the active config.
func (l *Loop) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// Session returns the session id.
func (l *Loop) Session() string {
	return l.session
}

func (l *Loop) CurrentTemp() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentTemp
}

func (l *Loop) TargetTemp() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.TargetTemp
}

func (l *Loop) IsHeater() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.IsHeater
}

func (l *Loop) Relay() RelayState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.relayState
}

func (l *Loop) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}
