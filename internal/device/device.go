// Package device provides the relay and temperature sensor variants the
// control loop can be wired to. The hardware variants drive Linux GPIO
// character device lines. The simulated variants model a heated or cooled
// volume so the daemon can run without hardware. The fakes are scripted
// test doubles.
package device

// Default BCM pin numbers.
const (
	DefaultChip     = "gpiochip0"
	DefaultPinRelay = 17
	DefaultPinCS    = 8  // MAX31855 chip select
	DefaultPinCLK   = 11 // MAX31855 clock
	DefaultPinDO    = 9  // MAX31855 data out
)
