package device_test

import (
	"github.com/sweeney/thermostat/internal/control"
	"github.com/sweeney/thermostat/internal/device"
)

var (
	_ control.PowerActuator     = (*device.HardwareRelay)(nil)
	_ control.PowerActuator     = (*device.SimulatedRelay)(nil)
	_ control.PowerActuator     = (*device.FakeRelay)(nil)
	_ control.TemperatureSource = (*device.HardwareSensor)(nil)
	_ control.TemperatureSource = (*device.SimulatedSensor)(nil)
	_ control.TemperatureSource = (*device.FakeSensor)(nil)
)
