package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/thermostat/internal/control"
	"github.com/sweeney/thermostat/internal/metrics"
	"github.com/sweeney/thermostat/internal/status"
	"github.com/sweeney/thermostat/internal/units"
)

func newTestServer(t *testing.T, m *metrics.Metrics) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Units:       units.Celsius,
		SampleMs:    1000,
		MinOffMs:    2000,
		HeartbeatMs: 900000,
		Sensor:      "sim",
		Relay:       "sim",
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":8080",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr, m, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func heating() control.Snapshot {
	return control.Snapshot{
		Session:       "sess-1",
		Tick:          4,
		CurrentTemp:   18,
		HasReading:    true,
		TargetTemp:    20,
		Tolerance:     1,
		IsHeater:      true,
		Relay:         control.RelayOn,
		Phase:         control.PhaseRunning,
		Issued:        control.TurnOn,
		TimeRemaining: control.Unbounded,
	}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Observe(heating())
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var sj status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &sj))
	assert.Equal(t, "sess-1", sj.Status.Session)
	assert.Equal(t, "ON", sj.Status.Relay)
	assert.Equal(t, "RUNNING", sj.Status.Phase)
	assert.True(t, sj.Status.MQTT.Connected)
	assert.Equal(t, "tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	assert.Equal(t, 1, sj.Status.Counts.RelayOn)
	assert.Equal(t, int64(1000), sj.Status.Config.SampleMs)
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"})

	_, body := get(t, ts.URL+"/index.json")
	var sj status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &sj))
	require.NotNil(t, sj.Status.Network)
	assert.Equal(t, "192.168.1.42", sj.Status.Network.IP)
}

func TestHTMLEndpoints(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Observe(heating())

	for _, path := range []string{"/", "/index.html"} {
		t.Run(path, func(t *testing.T) {
			resp, body := get(t, ts.URL+path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
			assert.Contains(t, body, "<title>Thermostat</title>")
			assert.Contains(t, body, "Heater")
			assert.Contains(t, body, "18.00°C")
			assert.Contains(t, body, "--:--:--")
		})
	}
}

func TestHTMLBeforeFirstTick(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "IDLE")
	assert.Contains(t, body, "UNKNOWN")
}

func TestHTMLHoldRemaining(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	snap := heating()
	snap.IsHeater = false
	snap.Phase = control.PhaseHolding
	snap.TimeRemaining = time.Hour + 2*time.Minute + 3*time.Second
	tr.Observe(snap)

	_, body := get(t, ts.URL+"/")
	assert.Contains(t, body, "01:02:03")
	assert.Contains(t, body, "Chiller")
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp, _ := get(t, ts.URL+"/nonexistent")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.Observe(heating())
	ts, _ := newTestServer(t, m)

	get(t, ts.URL+"/index.json")
	resp, body := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "thermostat_ticks_total 1")
	assert.Contains(t, body, `http_requests_total{route="/index.json",status="200"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp, _ := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t, nil)

	_, body := get(t, ts.URL+"/index.json")
	var before status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &before))
	assert.Equal(t, "IDLE", before.Status.Phase)

	tr.Observe(heating())
	off := heating()
	off.Issued = control.TurnOff
	off.Relay = control.RelayOff
	tr.Observe(off)

	_, body = get(t, ts.URL+"/index.json")
	var after status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &after))
	assert.Equal(t, "OFF", after.Status.Relay)
	assert.Equal(t, 1, after.Status.Counts.RelayOff)
}
