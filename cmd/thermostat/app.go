package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/thermostat/internal/control"
	"github.com/sweeney/thermostat/internal/metrics"
	"github.com/sweeney/thermostat/internal/mqtt"
	"github.com/sweeney/thermostat/internal/status"
	"github.com/sweeney/thermostat/internal/web"
)

// eventQueueSize bounds the ticks waiting to be published. The control loop
// never blocks on MQTT; ticks beyond this are dropped.
const eventQueueSize = 64

const shutdownTimeout = 5 * time.Second

// app wires a control loop to its publishers and the status server.
type app struct {
	publisher mqtt.Publisher        // nil when MQTT is disabled
	conn      mqtt.ConnectionStatus // nil when MQTT is disabled
	tracker   *status.Tracker
	metrics   *metrics.Metrics
	server    *web.Server // nil when HTTP is disabled
	heartbeat time.Duration
	logger    *zap.SugaredLogger
	now       func() time.Time

	events chan control.Snapshot

	mu         sync.Mutex
	stopReason string
}

func newApp(publisher mqtt.Publisher, conn mqtt.ConnectionStatus, tracker *status.Tracker, m *metrics.Metrics, heartbeat time.Duration, logger *zap.SugaredLogger) *app {
	return &app{
		publisher: publisher,
		conn:      conn,
		tracker:   tracker,
		metrics:   m,
		heartbeat: heartbeat,
		logger:    logger,
		now:       time.Now,
		events:    make(chan control.Snapshot, eventQueueSize),
	}
}

// enqueue hands a tick to the publisher goroutine. It runs on the control
// loop goroutine and never blocks.
func (a *app) enqueue(snap control.Snapshot) {
	if a.publisher == nil {
		return
	}
	select {
	case a.events <- snap:
	default:
		a.logger.Warnw("event queue full, dropping tick", "tick", snap.Tick)
	}
}

// run drives the loop until it ends, then publishes SHUTDOWN. The loop ends
// on a signal, when the hold completes, on a relay fault, or when the status
// server fails.
func (a *app) run(loop *control.Loop, sig <-chan os.Signal) error {
	a.publishStatus("STARTUP", "", true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		defer close(a.events)
		err := loop.Run(gctx)
		if errors.Is(err, control.ErrStopped) {
			// Signalled before the first tick.
			return loop.Close()
		}
		return err
	})

	g.Go(func() error {
		a.pump()
		return nil
	})

	g.Go(func() error {
		select {
		case s := <-sig:
			a.logger.Infow("received signal, shutting down", "signal", s)
			a.setStopReason(signalName(s))
			return loop.Stop()
		case <-gctx.Done():
			return nil
		}
	})

	if a.server != nil {
		g.Go(func() error {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return a.server.Shutdown(sctx)
		})
	}

	err := g.Wait()

	final := loop.Snapshot()
	a.tracker.SetControl(final)
	a.metrics.SetState(final)

	reason := a.reason(err, loop.Config())
	if err != nil {
		a.logger.Errorw("stopped with error", "reason", reason, "error", err)
	} else {
		a.logger.Infow("stopped", "reason", reason, "ticks", final.Tick)
	}
	a.publishStatus("SHUTDOWN", reason, true)
	return err
}

func (a *app) setStopReason(reason string) {
	a.mu.Lock()
	a.stopReason = reason
	a.mu.Unlock()
}

func (a *app) reason(err error, cfg control.Config) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.stopReason != "":
		return a.stopReason
	case errors.Is(err, control.ErrActuator):
		return "FAULT"
	case err != nil:
		return "ERROR"
	case cfg.HoldEnabled():
		return "HOLD_COMPLETE"
	}
	return "STOPPED"
}

// pump publishes tick events and heartbeats until the event queue is closed.
func (a *app) pump() {
	var heartbeat <-chan time.Time
	if a.heartbeat > 0 && a.publisher != nil {
		t := time.NewTicker(a.heartbeat)
		defer t.Stop()
		heartbeat = t.C
	}

	for {
		select {
		case snap, ok := <-a.events:
			if !ok {
				return
			}
			a.publishTick(snap)
		case <-heartbeat:
			a.publishStatus("HEARTBEAT", "", false)
		}
	}
}

func (a *app) publishTick(snap control.Snapshot) {
	for _, event := range mqtt.EventsFromSnapshot(snap) {
		a.logger.Debugw("event", "type", event.Type, "relay", event.Relay, "temp", event.Temp)
		if err := a.publisher.Publish(event); err != nil {
			// Don't stop the loop on publish failure
			a.logger.Warnw("publish error", "event", event.Type, "error", err)
		}
	}
	if snap.Phase == control.PhaseStopped && snap.Err == nil {
		a.publishStatus("HOLD_COMPLETE", "", false)
	}
}

// publishStatus publishes a system event carrying the full status snapshot.
func (a *app) publishStatus(event, reason string, retained bool) {
	if a.publisher == nil {
		return
	}
	if a.conn != nil {
		a.tracker.SetMQTTConnected(a.conn.IsConnected())
	}
	if event == "HEARTBEAT" {
		if net := readNetworkInfo(); net != nil {
			a.tracker.SetNetwork(net)
		}
	}
	snap := a.tracker.Snapshot()
	err := a.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  a.now(),
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		a.logger.Warnw("failed to publish system event", "event", event, "error", err)
		return
	}
	a.logger.Infow("published system event", "event", event, "reason", reason)
}
