package control

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets a logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithClock sets the time source used for dwell and hold calculations
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

// WithTimer sets the function used to wait between ticks. It returns the
// channel that fires after d and a function that cancels the wait.
func WithTimer(timer func(d time.Duration) (<-chan time.Time, func() bool)) Option {
	return func(l *Loop) {
		l.timer = timer
	}
}

// WithObserver adds a per-tick observer. Observers run on the loop goroutine
// in the order they were added.
func WithObserver(fn Observer) Option {
	return func(l *Loop) {
		l.observers = append(l.observers, fn)
	}
}

// WithSession sets the session id instead of generating one
func WithSession(id string) Option {
	return func(l *Loop) {
		l.session = id
	}
}

func realTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}
