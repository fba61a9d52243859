package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"c", "f", "k"} {
		u, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, Unit(s), u)
	}

	_, err := Parse("x")
	assert.Error(t, err)
	_, err = Parse("C")
	assert.Error(t, err)
}

func TestAbsoluteConversions(t *testing.T) {
	assert.InDelta(t, 100.0, ToCelsius(Fahrenheit, 212), 1e-9)
	assert.InDelta(t, 0.0, ToCelsius(Kelvin, 273.15), 1e-9)
	assert.Equal(t, 21.5, ToCelsius(Celsius, 21.5))

	assert.InDelta(t, 68.0, FromCelsius(Fahrenheit, 20), 1e-9)
	assert.InDelta(t, 293.15, FromCelsius(Kelvin, 20), 1e-9)

	for _, u := range []Unit{Celsius, Fahrenheit, Kelvin} {
		assert.InDelta(t, 37.2, ToCelsius(u, FromCelsius(u, 37.2)), 1e-9, string(u))
	}
}

func TestDeltaConversions(t *testing.T) {
	assert.InDelta(t, 2.0, DeltaToCelsius(Fahrenheit, 3.6), 1e-9)
	assert.Equal(t, 2.0, DeltaToCelsius(Kelvin, 2))
	assert.Equal(t, 2.0, DeltaToCelsius(Celsius, 2))
	assert.InDelta(t, 3.6, DeltaFromCelsius(Fahrenheit, 2), 1e-9)
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "°C", Celsius.Symbol())
	assert.Equal(t, "°F", Fahrenheit.Symbol())
	assert.Equal(t, "K", Kelvin.Symbol())
}
