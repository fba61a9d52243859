// Package units converts between Celsius, Fahrenheit and Kelvin.
package units

import "fmt"

// Unit is a temperature scale.
type Unit string

const (
	Celsius    Unit = "c"
	Fahrenheit Unit = "f"
	Kelvin     Unit = "k"
)

// Parse accepts "c", "f" or "k".
func Parse(s string) (Unit, error) {
	switch u := Unit(s); u {
	case Celsius, Fahrenheit, Kelvin:
		return u, nil
	}
	return "", fmt.Errorf("unrecognized units %q: use c, f or k", s)
}

// Symbol returns the display suffix, e.g. "°F".
func (u Unit) Symbol() string {
	switch u {
	case Fahrenheit:
		return "°F"
	case Kelvin:
		return "K"
	default:
		return "°C"
	}
}

// ToCelsius converts an absolute temperature.
func ToCelsius(u Unit, v float64) float64 {
	switch u {
	case Kelvin:
		return v - 273.15
	case Fahrenheit:
		return (v - 32) * 5 / 9
	default:
		return v
	}
}

// FromCelsius converts an absolute temperature.
func FromCelsius(u Unit, c float64) float64 {
	switch u {
	case Kelvin:
		return c + 273.15
	case Fahrenheit:
		return c*9/5 + 32
	default:
		return c
	}
}

// DeltaToCelsius converts a temperature difference, such as a tolerance.
func DeltaToCelsius(u Unit, d float64) float64 {
	if u == Fahrenheit {
		return d * 5 / 9
	}
	return d
}

// DeltaFromCelsius converts a temperature difference.
func DeltaFromCelsius(u Unit, d float64) float64 {
	if u == Fahrenheit {
		return d * 9 / 5
	}
	return d
}
