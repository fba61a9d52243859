package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/thermostat/internal/control"
	"github.com/sweeney/thermostat/internal/units"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details. Temperatures are in the
// configured display units.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Session       string       `json:"session"`
	Mode          string       `json:"mode"`
	Phase         string       `json:"phase"`
	Relay         string       `json:"relay"`
	Units         string       `json:"units"`
	Temperature   *float64     `json:"temperature"`
	Target        float64      `json:"target"`
	Tolerance     float64      `json:"tolerance"`
	HoldRemaining *int64       `json:"hold_remaining_seconds"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Ticks        uint64 `json:"ticks"`
	RelayOn      int    `json:"relay_on"`
	RelayOff     int    `json:"relay_off"`
	SensorErrors int    `json:"sensor_errors"`
	Faults       int    `json:"faults"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SampleMs    int64  `json:"sample_ms"`
	MinOffMs    int64  `json:"min_off_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Sensor      string `json:"sensor"`
	Relay       string `json:"relay"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	WSBroker    string `json:"ws_broker,omitempty"`
}

// ModeString returns "heat" or "cool".
func ModeString(isHeater bool) string {
	if isHeater {
		return "heat"
	}
	return "cool"
}

// round2 keeps converted temperatures readable.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func buildInner(snap Snapshot) StatusInner {
	cs := snap.Control
	u := snap.Config.Units
	if u == "" {
		u = units.Celsius
	}

	phase := string(cs.Phase)
	if phase == "" {
		phase = string(control.PhaseIdle)
	}
	relay := string(cs.Relay)
	if relay == "" {
		relay = "UNKNOWN"
	}

	inner := StatusInner{
		Session:       cs.Session,
		Mode:          ModeString(cs.IsHeater),
		Phase:         phase,
		Relay:         relay,
		Units:         string(u),
		Target:        round2(units.FromCelsius(u, cs.TargetTemp)),
		Tolerance:     round2(units.DeltaFromCelsius(u, cs.Tolerance)),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Ticks:        snap.Counts.Ticks,
			RelayOn:      snap.Counts.RelayOn,
			RelayOff:     snap.Counts.RelayOff,
			SensorErrors: snap.Counts.SensorErrors,
			Faults:       snap.Counts.Faults,
		},
		Config: ConfigJSON{
			SampleMs:    snap.Config.SampleMs,
			MinOffMs:    snap.Config.MinOffMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Sensor:      snap.Config.Sensor,
			Relay:       snap.Config.Relay,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
		},
	}
	if cs.HasReading {
		t := round2(units.FromCelsius(u, cs.CurrentTemp))
		inner.Temperature = &t
	}
	if cs.TimeRemaining != control.Unbounded && cs.Phase != "" {
		secs := int64(cs.TimeRemaining.Truncate(time.Second).Seconds())
		inner.HoldRemaining = &secs
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
