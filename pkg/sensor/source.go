package sensor

import (
	"context"
	"math"
)

// Measurement is one raw sample from a temperature/humidity sensor.
// A channel the sensor could not read is NaN.
type Measurement struct {
	HumidityPct float64
	TempC       float64
	TempF       float64
}

// Source defines the methods a temperature/humidity sensor must implement.
type Source interface {
	Read(ctx context.Context) (Measurement, error)
	Close() error
}

// NaNMeasurement returns a Measurement with every channel unread.
func NaNMeasurement() Measurement {
	return Measurement{HumidityPct: math.NaN(), TempC: math.NaN(), TempF: math.NaN()}
}

// Valid reports whether all channels hold numbers.
func (m Measurement) Valid() bool {
	return !math.IsNaN(m.HumidityPct) && !math.IsNaN(m.TempC) && !math.IsNaN(m.TempF)
}

// CelsiusToFahrenheit converts degrees Celsius to Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*1.8 + 32
}

// FahrenheitToCelsius converts degrees Fahrenheit to Celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 0.55555
}
