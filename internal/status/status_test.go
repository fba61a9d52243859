package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/thermostat/internal/control"
	"github.com/sweeney/thermostat/internal/units"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func runningSnapshot() control.Snapshot {
	return control.Snapshot{
		Session:       "abc",
		Tick:          7,
		Timestamp:     start.Add(7 * time.Second),
		CurrentTemp:   18.5,
		HasReading:    true,
		TargetTemp:    20,
		Tolerance:     1,
		IsHeater:      true,
		Relay:         control.RelayOn,
		Phase:         control.PhaseRunning,
		TimeRemaining: control.Unbounded,
	}
}

func TestNewTracker(t *testing.T) {
	cfg := Config{SampleMs: 1000, MinOffMs: 2000, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	assert.True(t, snap.StartTime.Equal(start))
	assert.Equal(t, cfg, snap.Config)
	assert.False(t, snap.MQTTConnected)
	assert.Zero(t, snap.Counts)
	assert.Nil(t, snap.Network)
}

func TestObserveCounts(t *testing.T) {
	tr := NewTracker(start, Config{})

	on := runningSnapshot()
	on.Issued = control.TurnOn
	tr.Observe(on)

	off := runningSnapshot()
	off.Tick = 8
	off.Issued = control.TurnOff
	off.Relay = control.RelayOff
	tr.Observe(off)

	failed := runningSnapshot()
	failed.Tick = 9
	failed.ReadErr = errors.New("open circuit")
	tr.Observe(failed)

	fault := runningSnapshot()
	fault.Tick = 10
	fault.Err = control.ErrActuator
	fault.Phase = control.PhaseStopped
	tr.Observe(fault)

	snap := tr.Snapshot()
	assert.Equal(t, Counts{Ticks: 10, RelayOn: 1, RelayOff: 1, SensorErrors: 1, Faults: 1}, snap.Counts)
	assert.Equal(t, control.PhaseStopped, snap.Control.Phase)
}

func TestSetControlKeepsCounts(t *testing.T) {
	tr := NewTracker(start, Config{})
	on := runningSnapshot()
	on.Issued = control.TurnOn
	tr.Observe(on)

	stopped := runningSnapshot()
	stopped.Phase = control.PhaseStopped
	stopped.Relay = control.RelayOff
	tr.SetControl(stopped)

	snap := tr.Snapshot()
	assert.Equal(t, 1, snap.Counts.RelayOn)
	assert.Equal(t, control.RelayOff, snap.Control.Relay)
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.SetMQTTConnected(true)
	assert.True(t, tr.Snapshot().MQTTConnected)
	tr.SetMQTTConnected(false)
	assert.False(t, tr.Snapshot().MQTTConnected)
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Minute)}
	assert.Equal(t, 90*time.Minute, snap.Uptime())
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Observe(runningSnapshot())

	snap := tr.Snapshot()
	tr.SetMQTTConnected(true)
	assert.False(t, snap.MQTTConnected, "snapshot should not change after tracker update")
}

func TestFormatJSON(t *testing.T) {
	tr := NewTracker(start, Config{Units: units.Celsius, SampleMs: 1000, Broker: "tcp://b:1883", Sensor: "sim", Relay: "sim"})
	tr.Observe(runningSnapshot())
	snap := tr.Snapshot()
	snap.Now = start.Add(65 * time.Second)

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(snap), &sj))

	s := sj.Status
	assert.Empty(t, s.Event)
	assert.Equal(t, "abc", s.Session)
	assert.Equal(t, "heat", s.Mode)
	assert.Equal(t, "RUNNING", s.Phase)
	assert.Equal(t, "ON", s.Relay)
	require.NotNil(t, s.Temperature)
	assert.Equal(t, 18.5, *s.Temperature)
	assert.Equal(t, 20.0, s.Target)
	assert.Nil(t, s.HoldRemaining)
	assert.Equal(t, int64(65), s.UptimeSeconds)
	assert.Equal(t, "2026-01-01T00:00:00Z", s.StartTime)
	assert.Equal(t, "tcp://b:1883", s.MQTT.Broker)
	assert.Equal(t, uint64(7), s.Counts.Ticks)
	assert.Equal(t, "sim", s.Config.Sensor)
}

func TestFormatJSONDisplayUnits(t *testing.T) {
	tr := NewTracker(start, Config{Units: units.Fahrenheit})
	cs := runningSnapshot()
	cs.CurrentTemp = 20
	cs.Tolerance = 5
	tr.Observe(cs)

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(tr.Snapshot()), &sj))
	assert.Equal(t, "f", sj.Status.Units)
	assert.Equal(t, 68.0, *sj.Status.Temperature)
	assert.Equal(t, 9.0, sj.Status.Tolerance)
}

func TestFormatJSONBeforeFirstTick(t *testing.T) {
	tr := NewTracker(start, Config{})

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(FormatJSON(tr.Snapshot()), &raw))
	s := raw["status"]
	assert.Equal(t, "IDLE", s["phase"])
	assert.Equal(t, "UNKNOWN", s["relay"])
	assert.Nil(t, s["temperature"])
	assert.Equal(t, "c", s["units"])
}

func TestFormatJSONHoldRemaining(t *testing.T) {
	tr := NewTracker(start, Config{})
	cs := runningSnapshot()
	cs.Phase = control.PhaseHolding
	cs.TimeRemaining = 90*time.Second + 400*time.Millisecond
	tr.Observe(cs)

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(tr.Snapshot()), &sj))
	require.NotNil(t, sj.Status.HoldRemaining)
	assert.Equal(t, int64(90), *sj.Status.HoldRemaining)
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Observe(runningSnapshot())

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &sj))
	assert.Equal(t, "SHUTDOWN", sj.Status.Event)
	assert.Equal(t, "SIGTERM", sj.Status.Reason)

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "STARTUP", ""), &raw))
	assert.NotContains(t, raw["status"], "reason")
}

func TestFormatJSONWithNetwork(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "home"})

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(tr.Snapshot()), &sj))
	require.NotNil(t, sj.Status.Network)
	assert.Equal(t, "192.168.1.42", sj.Status.Network.IP)
	assert.Equal(t, "home", sj.Status.Network.SSID)
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, Config{})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cs := runningSnapshot()
				cs.Issued = control.TurnOn
				tr.Observe(cs)
				tr.SetMQTTConnected(j%2 == 0)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = FormatJSON(tr.Snapshot())
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, tr.Snapshot().Counts.RelayOn)
}
