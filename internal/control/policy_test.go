package control

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideHeating(t *testing.T) {
	cfg := testConfig() // target 20, tolerance 2

	tests := []struct {
		temp float64
		want Command
	}{
		{17.9, TurnOn},
		{18, NoChange}, // lower boundary is inside the band
		{20, NoChange},
		{22, NoChange}, // upper boundary is inside the band
		{22.1, TurnOff},
		{-40, TurnOn},
		{100, TurnOff},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.temp), func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.temp, cfg))
		})
	}
}

func TestDecideCooling(t *testing.T) {
	cfg := testConfig()
	cfg.IsHeater = false

	tests := []struct {
		temp float64
		want Command
	}{
		{17.9, TurnOff},
		{18, NoChange},
		{20, NoChange},
		{22, NoChange},
		{22.1, TurnOn},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.temp), func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.temp, cfg))
		})
	}
}

func TestDecideZeroTolerance(t *testing.T) {
	cfg := testConfig()
	cfg.Tolerance = 0

	assert.Equal(t, NoChange, Decide(20, cfg))
	assert.Equal(t, TurnOn, Decide(19.99, cfg))
	assert.Equal(t, TurnOff, Decide(20.01, cfg))
}

// Above the band a heater is always told to turn off, whatever the target.
func TestDecideHeaterAboveBandAlwaysOff(t *testing.T) {
	for target := -20.0; target <= 80; target += 7.5 {
		for tol := 0.0; tol <= 5; tol += 0.5 {
			cfg := testConfig()
			cfg.TargetTemp = target
			cfg.Tolerance = tol
			for _, over := range []float64{0.01, 0.5, 3, 50} {
				temp := target + tol + over
				if got := Decide(temp, cfg); got != TurnOff {
					t.Fatalf("target=%v tol=%v temp=%v: got %v, want OFF", target, tol, temp, got)
				}
			}
		}
	}
}

func TestInBand(t *testing.T) {
	cfg := testConfig()

	assert.True(t, InBand(18, cfg))
	assert.True(t, InBand(22, cfg))
	assert.True(t, InBand(20.5, cfg))
	assert.False(t, InBand(17.99, cfg))
	assert.False(t, InBand(22.01, cfg))
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "ON", TurnOn.String())
	assert.Equal(t, "OFF", TurnOff.String())
	assert.Equal(t, "NO_CHANGE", NoChange.String())
}
