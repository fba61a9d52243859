package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/sweeney/thermostat/internal/device"
	"github.com/sweeney/thermostat/internal/settings"
)

// options holds everything parsed from the command line.
type options struct {
	settingsFile string
	preset       string
	save         string

	mode      string
	units     string
	temp      float64
	tolerance float64
	hold      time.Duration
	holdMode  string
	frequency time.Duration
	buffer    time.Duration

	sensor         string
	relay          string
	chip           string
	pinRelay       int
	pinCS          int
	pinCLK         int
	pinDO          int
	relayActiveLow bool
	simStart       float64

	broker    string
	clientID  string
	httpAddr  string
	wsBroker  string
	heartbeat time.Duration
	quiet     bool
	debug     bool

	// set records which preset-related flags were given explicitly.
	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("thermostat", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&o.settingsFile, "settings-file", settings.DefaultPath, "Presets file")
	fs.StringVar(&o.preset, "settings", "", "Name of a saved preset to start from")
	fs.StringVar(&o.preset, "s", "", "Shorthand for -settings")
	fs.StringVar(&o.save, "save", "", "Save the effective settings under this preset name")

	fs.StringVar(&o.mode, "mode", settings.ModeHeat, `"heat" or "cool"`)
	fs.StringVar(&o.units, "units", "c", "Temperature units: c, f or k")
	fs.Float64Var(&o.temp, "temp", 20, "Target temperature, in -units")
	fs.Float64Var(&o.tolerance, "tolerance", 1, "Half-width of the deadband, in -units")
	fs.DurationVar(&o.hold, "hold", -1, "How long to hold the target before stopping (negative to run until stopped)")
	fs.StringVar(&o.holdMode, "hold-mode", "continuous", `"continuous" (time in band) or "wallclock"`)
	fs.DurationVar(&o.frequency, "frequency", time.Second, "Sample interval (500ms to 60s)")
	fs.DurationVar(&o.buffer, "buffer", 2*time.Second, "Minimum relay OFF time before it may turn ON (500ms to 15s)")

	fs.StringVar(&o.sensor, "sensor", "sim", `Temperature source: "sim" or "max31855"`)
	fs.StringVar(&o.relay, "relay", "sim", `Power actuator: "sim" or "gpio"`)
	fs.StringVar(&o.chip, "chip", device.DefaultChip, "GPIO chip")
	fs.IntVar(&o.pinRelay, "pin-relay", device.DefaultPinRelay, "BCM pin number for the relay")
	fs.IntVar(&o.pinCS, "pin-cs", device.DefaultPinCS, "BCM pin number for MAX31855 chip select")
	fs.IntVar(&o.pinCLK, "pin-clk", device.DefaultPinCLK, "BCM pin number for MAX31855 clock")
	fs.IntVar(&o.pinDO, "pin-do", device.DefaultPinDO, "BCM pin number for MAX31855 data out")
	fs.BoolVar(&o.relayActiveLow, "relay-active-low", false, "Relay input is active low")
	fs.Float64Var(&o.simStart, "sim-start", 15, "Starting temperature of the simulated sensor, in Celsius")

	fs.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	fs.StringVar(&o.clientID, "client-id", "thermostat", "MQTT client ID")
	fs.StringVar(&o.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	fs.StringVar(&o.wsBroker, "ws-broker", "", "MQTT websocket URL for the live status page (empty to disable)")
	fs.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.BoolVar(&o.quiet, "quiet", false, "Do not print the status line every tick")
	fs.BoolVar(&o.quiet, "q", false, "Shorthand for -quiet")
	fs.BoolVar(&o.debug, "debug", false, "Development logging at debug level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// effectivePreset builds the preset to run: flag defaults, overlaid by the named
// preset from file (if any), overlaid by flags given on the command line.
func (o *options) effectivePreset(file settings.File) (settings.Preset, error) {
	p := settings.Preset{
		Mode:      o.mode,
		Units:     o.units,
		Temp:      o.temp,
		Tolerance: o.tolerance,
		HoldMode:  o.holdMode,
		Frequency: o.frequency.Milliseconds(),
		Buffer:    o.buffer.Milliseconds(),
	}
	p.Time = holdMillis(o.hold)

	if o.preset != "" {
		saved, ok := file[o.preset]
		if !ok {
			return settings.Preset{}, fmt.Errorf("no preset named %q (have %v)", o.preset, file.Names())
		}
		p = saved
	}

	if o.set["mode"] {
		p.Mode = o.mode
	}
	if o.set["units"] {
		p.Units = o.units
	}
	if o.set["temp"] {
		p.Temp = o.temp
	}
	if o.set["tolerance"] {
		p.Tolerance = o.tolerance
	}
	if o.set["hold"] {
		p.Time = holdMillis(o.hold)
	}
	if o.set["hold-mode"] {
		p.HoldMode = o.holdMode
	}
	if o.set["frequency"] {
		p.Frequency = o.frequency.Milliseconds()
	}
	if o.set["buffer"] {
		p.Buffer = o.buffer.Milliseconds()
	}
	return p, p.Validate()
}

func holdMillis(d time.Duration) *int64 {
	ms := int64(-1)
	if d >= 0 {
		ms = d.Milliseconds()
	}
	return &ms
}
