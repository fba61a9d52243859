// Package metrics exposes control loop and HTTP metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/thermostat/internal/control"
)

var phases = []control.Phase{control.PhaseIdle, control.PhaseRunning, control.PhaseHolding, control.PhaseStopped}

// Metrics holds the thermostat collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ticks         prometheus.Counter
	sensorErrors  prometheus.Counter
	faults        prometheus.Counter
	relaySwitches *prometheus.CounterVec
	temperature   prometheus.Gauge
	target        prometheus.Gauge
	relayOn       prometheus.Gauge
	holdRemaining prometheus.Gauge
	phase         *prometheus.GaugeVec

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermostat_ticks_total",
			Help: "Total control loop ticks completed.",
		}),
		sensorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermostat_sensor_errors_total",
			Help: "Total failed temperature reads.",
		}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermostat_faults_total",
			Help: "Total relay failures that stopped the loop.",
		}),
		relaySwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermostat_relay_switches_total",
			Help: "Total relay commands issued by state.",
		}, []string{"state"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thermostat_temperature_celsius",
			Help: "Last successful temperature reading.",
		}),
		target: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thermostat_target_celsius",
			Help: "Configured target temperature.",
		}),
		relayOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thermostat_relay_on",
			Help: "1 when the relay is energized.",
		}),
		holdRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thermostat_hold_remaining_seconds",
			Help: "Time left in the hold countdown, -1 when unbounded.",
		}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermostat_phase",
			Help: "1 for the current loop phase, 0 otherwise.",
		}, []string{"phase"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.ticks,
		m.sensorErrors,
		m.faults,
		m.relaySwitches,
		m.temperature,
		m.target,
		m.relayOn,
		m.holdRemaining,
		m.phase,
		m.httpRequestsTotal,
		m.httpDuration,
	)

	m.holdRemaining.Set(-1)
	m.setPhase(control.PhaseIdle)
	return m
}

// Observe records one control tick. Suitable for use as a control.Observer.
func (m *Metrics) Observe(snap control.Snapshot) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	switch snap.Issued {
	case control.TurnOn:
		m.relaySwitches.WithLabelValues(string(control.RelayOn)).Inc()
	case control.TurnOff:
		m.relaySwitches.WithLabelValues(string(control.RelayOff)).Inc()
	}
	if snap.ReadErr != nil {
		m.sensorErrors.Inc()
	}
	if snap.Err != nil {
		m.faults.Inc()
	}
	if snap.HasReading {
		m.temperature.Set(snap.CurrentTemp)
	}
	m.SetState(snap)
}

// SetState updates the gauges without counting a tick.
func (m *Metrics) SetState(snap control.Snapshot) {
	if m == nil {
		return
	}
	m.target.Set(snap.TargetTemp)
	if snap.Relay == control.RelayOn {
		m.relayOn.Set(1)
	} else {
		m.relayOn.Set(0)
	}
	if snap.TimeRemaining == control.Unbounded {
		m.holdRemaining.Set(-1)
	} else {
		m.holdRemaining.Set(snap.TimeRemaining.Seconds())
	}
	m.setPhase(snap.Phase)
}

func (m *Metrics) setPhase(current control.Phase) {
	for _, p := range phases {
		v := 0.0
		if p == current {
			v = 1
		}
		m.phase.WithLabelValues(string(p)).Set(v)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and their latency under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
