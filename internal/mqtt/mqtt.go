// Package mqtt publishes thermostat events, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/thermostat/internal/control"
)

// Topic is the MQTT topic for per-tick thermostat events.
const Topic = "home/thermostat/events"

// TopicSystem is the MQTT topic for lifecycle events.
const TopicSystem = "home/thermostat/system"

// EventType names a thermostat event.
type EventType string

const (
	EventRelayOn     EventType = "RELAY_ON"
	EventRelayOff    EventType = "RELAY_OFF"
	EventSensorError EventType = "SENSOR_ERROR"
	EventFault       EventType = "FAULT"
)

// Event is a thermostat event derived from a control snapshot.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Session   string
	Temp      float64
	HasTemp   bool
	Target    float64
	IsHeater  bool
	Relay     control.RelayState
	Phase     control.Phase
	Error     string
}

// EventsFromSnapshot returns the events a completed tick should publish:
// a relay transition, a sensor failure or a fatal fault. Most ticks publish
// nothing.
func EventsFromSnapshot(snap control.Snapshot) []Event {
	base := Event{
		Timestamp: snap.Timestamp,
		Session:   snap.Session,
		Temp:      snap.CurrentTemp,
		HasTemp:   snap.HasReading,
		Target:    snap.TargetTemp,
		IsHeater:  snap.IsHeater,
		Relay:     snap.Relay,
		Phase:     snap.Phase,
	}

	var events []Event
	switch snap.Issued {
	case control.TurnOn:
		e := base
		e.Type = EventRelayOn
		events = append(events, e)
	case control.TurnOff:
		e := base
		e.Type = EventRelayOff
		events = append(events, e)
	}
	if snap.ReadErr != nil {
		e := base
		e.Type = EventSensorError
		e.Error = snap.ReadErr.Error()
		events = append(events, e)
	}
	if snap.Err != nil {
		e := base
		e.Type = EventFault
		e.Error = snap.Err.Error()
		events = append(events, e)
	}
	return events
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a thermostat event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a lifecycle event (STARTUP, SHUTDOWN, HEARTBEAT,
// HOLD_COMPLETE, RECONNECTED).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM", "MQTT_DISCONNECT"
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the MQTT message payload for thermostat events.
type Payload struct {
	Thermostat ThermostatPayload `json:"thermostat"`
}

// ThermostatPayload contains the event details.
type ThermostatPayload struct {
	Timestamp   string   `json:"timestamp"`
	Event       string   `json:"event"`
	Session     string   `json:"session"`
	Mode        string   `json:"mode"`
	Temperature *float64 `json:"temperature,omitempty"`
	Target      float64  `json:"target"`
	Relay       string   `json:"relay"`
	Phase       string   `json:"phase"`
	Error       string   `json:"error,omitempty"`
}

// ModeString returns "heat" or "cool".
func ModeString(isHeater bool) string {
	if isHeater {
		return "heat"
	}
	return "cool"
}

// FormatPayload creates the JSON payload for a thermostat event.
func FormatPayload(event Event) ([]byte, error) {
	p := ThermostatPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Session:   event.Session,
		Mode:      ModeString(event.IsHeater),
		Target:    event.Target,
		Relay:     string(event.Relay),
		Phase:     string(event.Phase),
		Error:     event.Error,
	}
	if event.HasTemp {
		temp := event.Temp
		p.Temperature = &temp
	}
	return json.Marshal(Payload{Thermostat: p})
}

// SystemPayload is the payload for system events that don't carry a full
// status snapshot (LWT, RECONNECTED).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Event:  event.Event,
			Reason: event.Reason,
		},
	}
	if !event.Timestamp.IsZero() {
		payload.System.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(payload)
}

// WillPayload is registered with the broker as the last will. It has no
// timestamp because it is fixed at connect time.
func WillPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: "SHUTDOWN", Reason: "MQTT_DISCONNECT"})
	return data
}
