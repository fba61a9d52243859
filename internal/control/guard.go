package control

import "time"

// ChatterGuard enforces a minimum OFF dwell before the relay may turn ON.
type ChatterGuard struct {
	lastOffAt time.Time
	hasOff    bool
}

// Permit filters a desired command. A TurnOn issued less than dwell after the
// last OFF transition becomes NoChange; the next tick asks again. TurnOff is
// never blocked, and TurnOn is always permitted before the first OFF.
func (g *ChatterGuard) Permit(cmd Command, now time.Time, dwell time.Duration) Command {
	if cmd != TurnOn || !g.hasOff {
		return cmd
	}
	if now.Sub(g.lastOffAt) < dwell {
		return NoChange
	}
	return cmd
}

// MarkOff records an OFF transition.
func (g *ChatterGuard) MarkOff(at time.Time) {
	g.lastOffAt = at
	g.hasOff = true
}

// LastOffAt returns the time of the last OFF transition, if any.
func (g *ChatterGuard) LastOffAt() (time.Time, bool) {
	return g.lastOffAt, g.hasOff
}
