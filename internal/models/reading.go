package models

import (
	"math"
	"time"
)

// SensorReading is one temperature/humidity sample. Heat index fields are
// meaningless when Valid is false.
type SensorReading struct {
	HumidityPct float64   `json:"humidity_pct"`
	TempC       float64   `json:"temp_c"`
	TempF       float64   `json:"temp_f"`
	HeatIndexC  float64   `json:"heat_index_c"`
	HeatIndexF  float64   `json:"heat_index_f"`
	Valid       bool      `json:"valid"`
	Timestamp   time.Time `json:"timestamp"`
}

// InvalidReading returns a reading marked as failed.
func InvalidReading(at time.Time) SensorReading {
	nan := math.NaN()
	return SensorReading{
		HumidityPct: nan,
		TempC:       nan,
		TempF:       nan,
		HeatIndexC:  nan,
		HeatIndexF:  nan,
		Valid:       false,
		Timestamp:   at,
	}
}
