// Package console renders the per-tick thermostat status line for a terminal.
package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sweeney/thermostat/internal/control"
	"github.com/sweeney/thermostat/internal/units"
)

// FormatRemaining formats a hold countdown as HH:MM:SS, truncated to whole
// seconds. Unbounded (or any negative value) renders as --:--:--.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "--:--:--"
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// Renderer writes one status line per tick.
type Renderer struct {
	mu    sync.Mutex
	w     io.Writer
	units units.Unit
}

func NewRenderer(w io.Writer, u units.Unit) *Renderer {
	if u == "" {
		u = units.Celsius
	}
	return &Renderer{w: w, units: u}
}

// Line returns the status line for snap, without a trailing newline.
func (r *Renderer) Line(snap control.Snapshot) string {
	var remaining string
	if snap.TimeRemaining >= 0 {
		remaining = "Remaining: " + FormatRemaining(snap.TimeRemaining) + "\t\t"
	}

	temp := "--"
	if snap.HasReading {
		temp = fmt.Sprintf("%.1f", units.FromCelsius(r.units, snap.CurrentTemp))
	}

	label := "Chiller"
	if snap.IsHeater {
		label = "Heater"
	}
	state := "OFF"
	if snap.Relay == control.RelayOn {
		state = "ON"
	}

	sym := r.units.Symbol()
	return fmt.Sprintf("%sSet: %.1f%s\t\tTemp(%s): %s\t\t%s: %s",
		remaining, units.FromCelsius(r.units, snap.TargetTemp), sym, sym, temp, label, state)
}

// Render writes the status line for snap. Suitable for use as a
// control.Observer; write errors are dropped.
func (r *Renderer) Render(snap control.Snapshot) {
	line := r.Line(snap)
	r.mu.Lock()
	fmt.Fprintln(r.w, line)
	r.mu.Unlock()
}
