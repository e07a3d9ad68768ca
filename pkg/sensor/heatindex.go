package sensor

import "math"

// HeatIndex computes the apparent temperature for temperature t and relative
// humidity rh. t is in Fahrenheit when fahrenheit is true, Celsius otherwise;
// the result is in the same scale.
//
// The simple Steadman approximation is used below 79°F, otherwise the
// Rothfusz regression with the NWS low and high humidity adjustments.
func HeatIndex(t, rh float64, fahrenheit bool) float64 {
	if !fahrenheit {
		t = CelsiusToFahrenheit(t)
	}

	hi := 0.5 * (t + 61.0 + ((t - 68.0) * 1.2) + (rh * 0.094))

	if hi > 79 {
		hi = -42.379 +
			2.04901523*t +
			10.14333127*rh +
			-0.22475541*t*rh +
			-0.00683783*t*t +
			-0.05481717*rh*rh +
			0.00122874*t*t*rh +
			0.00085282*t*rh*rh +
			-0.00000199*t*t*rh*rh

		if rh < 13 && t >= 80 && t <= 112 {
			hi -= ((13.0 - rh) * 0.25) * math.Sqrt((17.0-math.Abs(t-95.0))*0.05882)
		} else if rh > 85 && t >= 80 && t <= 87 {
			hi += ((rh - 85.0) * 0.1) * ((87.0 - t) * 0.2)
		}
	}

	if fahrenheit {
		return hi
	}
	return FahrenheitToCelsius(hi)
}
