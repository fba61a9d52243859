package control

import "time"

// HoldTimer counts towards the end of a session.
type HoldTimer struct {
	elapsed time.Duration
	since   time.Time
}

// Reset zeroes the countdown. In wall-clock mode it restarts from now.
func (h *HoldTimer) Reset(now time.Time) {
	h.elapsed = 0
	h.since = now
}

// Advance updates the countdown for one tick and reports whether the hold
// has completed. known is false when the tick had no reading; in continuous
// mode such a tick neither advances nor resets the countdown.
func (h *HoldTimer) Advance(now time.Time, inBand, known bool, cfg Config) bool {
	if !cfg.HoldEnabled() {
		return false
	}

	switch cfg.HoldMode {
	case HoldWallClock:
		h.elapsed = now.Sub(h.since)
	default:
		if !known {
			return false
		}
		if inBand {
			h.elapsed += cfg.SampleInterval
		} else {
			h.elapsed = 0
		}
	}
	return h.elapsed >= cfg.HoldDuration
}

// Elapsed returns the accumulated hold time.
func (h *HoldTimer) Elapsed() time.Duration {
	return h.elapsed
}

// Remaining returns the time left in the countdown, or Unbounded when no
// hold is configured.
func (h *HoldTimer) Remaining(cfg Config) time.Duration {
	if !cfg.HoldEnabled() {
		return Unbounded
	}
	if left := cfg.HoldDuration - h.elapsed; left > 0 {
		return left
	}
	return 0
}
