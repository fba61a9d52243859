// Command thermostat drives a heater or chiller relay from a temperature
// sensor, holding a target temperature within a tolerance band.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/thermostat/internal/console"
	"github.com/sweeney/thermostat/internal/control"
	"github.com/sweeney/thermostat/internal/device"
	"github.com/sweeney/thermostat/internal/metrics"
	"github.com/sweeney/thermostat/internal/mqtt"
	"github.com/sweeney/thermostat/internal/settings"
	"github.com/sweeney/thermostat/internal/status"
	"github.com/sweeney/thermostat/internal/units"
	"github.com/sweeney/thermostat/internal/web"
)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(opts.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode(logger, run(opts, logger)))
}

// exitCode logs a fatal run error and flushes the logger before the
// process exits.
func exitCode(logger *zap.SugaredLogger, err error) int {
	code := 0
	if err != nil {
		logger.Errorw("fatal", "error", err)
		code = 1
	}
	_ = logger.Sync()
	return code
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func run(opts *options, logger *zap.SugaredLogger) error {
	file, err := settings.Load(opts.settingsFile)
	if err != nil {
		return err
	}
	preset, err := opts.effectivePreset(file)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	cfg, err := preset.Config()
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if opts.save != "" {
		file[opts.save] = preset
		if err := settings.Save(opts.settingsFile, file); err != nil {
			return err
		}
		logger.Infow("saved preset", "name", opts.save, "file", opts.settingsFile)
	}

	sensor, relay, err := openDevices(opts, cfg)
	if err != nil {
		return err
	}

	var (
		publisher mqtt.Publisher
		conn      mqtt.ConnectionStatus
	)
	if opts.broker != "" {
		p, err := mqtt.NewRealPublisher(opts.broker, opts.clientID, logger.Named("mqtt"))
		if err != nil {
			relay.Release()
			sensor.Close()
			return err
		}
		defer p.Close()
		publisher, conn = p, p
	}

	unit := units.Unit(preset.Units)
	tracker := status.NewTracker(time.Now(), status.Config{
		Units:       unit,
		SampleMs:    cfg.SampleInterval.Milliseconds(),
		MinOffMs:    cfg.MinOffDwell.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Sensor:      opts.sensor,
		Relay:       opts.relay,
		Broker:      opts.broker,
		HTTPAddr:    opts.httpAddr,
		WSBroker:    opts.wsBroker,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	m := metrics.New()

	a := newApp(publisher, conn, tracker, m, opts.heartbeat, logger)
	loopOptions := []control.Option{
		control.WithLogger(logger.Named("control")),
		control.WithObserver(tracker.Observe),
		control.WithObserver(m.Observe),
	}
	if !opts.quiet {
		loopOptions = append(loopOptions, control.WithObserver(console.NewRenderer(os.Stdout, unit).Render))
	}
	loopOptions = append(loopOptions, control.WithObserver(a.enqueue))

	loop, err := control.New(cfg, sensor, relay, loopOptions...)
	if err != nil {
		relay.Release()
		sensor.Close()
		return err
	}
	tracker.SetControl(loop.Snapshot())
	m.SetState(loop.Snapshot())

	if opts.httpAddr != "" {
		a.server = web.New(opts.httpAddr, tracker, m, logger)
		logger.Infow("http status server listening", "addr", opts.httpAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	logger.Infow("started",
		"mode", preset.Mode,
		"units", preset.Units,
		"target", preset.Temp,
		"tolerance", preset.Tolerance,
		"hold", cfg.HoldDuration,
		"sensor", opts.sensor,
		"relay", opts.relay,
		"broker", opts.broker,
	)
	return a.run(loop, sigCh)
}

// openDevices builds the sensor and relay named by the flags.
func openDevices(opts *options, cfg control.Config) (control.TemperatureSource, control.PowerActuator, error) {
	var relay control.PowerActuator
	switch opts.relay {
	case "sim":
		relay = device.NewSimulatedRelay()
	case "gpio":
		r, err := device.NewHardwareRelay(opts.chip, opts.pinRelay, opts.relayActiveLow)
		if err != nil {
			return nil, nil, fmt.Errorf("init relay: %w", err)
		}
		relay = r
	default:
		return nil, nil, fmt.Errorf("unknown relay %q: use sim or gpio", opts.relay)
	}

	switch opts.sensor {
	case "sim":
		return device.NewSimulatedSensor(relay, cfg.IsHeater, opts.simStart), relay, nil
	case "max31855":
		s, err := device.NewHardwareSensor(opts.chip, opts.pinCS, opts.pinCLK, opts.pinDO)
		if err != nil {
			relay.Release()
			return nil, nil, fmt.Errorf("init sensor: %w", err)
		}
		return s, relay, nil
	}
	relay.Release()
	return nil, nil, fmt.Errorf("unknown sensor %q: use sim or max31855", opts.sensor)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// signalName maps a shutdown signal to the reason published on SHUTDOWN.
func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
