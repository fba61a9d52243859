// Package status provides a thread-safe status tracker for the thermostat
// daemon. It is read by the HTTP handlers and used to build MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/thermostat/internal/control"
	"github.com/sweeney/thermostat/internal/units"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Units       units.Unit
	SampleMs    int64
	MinOffMs    int64
	HeartbeatMs int64
	Sensor      string // "sim" or "max31855"
	Relay       string // "sim" or "gpio"
	Broker      string
	HTTPAddr    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Counts tallies what the control loop has done since startup.
type Counts struct {
	Ticks        uint64
	RelayOn      int
	RelayOff     int
	SensorErrors int
	Faults       int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Control       control.Snapshot
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Observe records a control snapshot and updates the counts.
// Suitable for use as a control.Observer.
func (t *Tracker) Observe(cs control.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Control = cs
	t.snap.Counts.Ticks = cs.Tick
	switch cs.Issued {
	case control.TurnOn:
		t.snap.Counts.RelayOn++
	case control.TurnOff:
		t.snap.Counts.RelayOff++
	}
	if cs.ReadErr != nil {
		t.snap.Counts.SensorErrors++
	}
	if cs.Err != nil {
		t.snap.Counts.Faults++
	}
}

// SetControl replaces the control snapshot without touching the counts.
// Used for state changes that happen outside a tick, such as a stop.
func (t *Tracker) SetControl(cs control.Snapshot) {
	t.mu.Lock()
	t.snap.Control = cs
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
