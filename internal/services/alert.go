package services

import "github.com/benmeehan/envnode/internal/models"

// Default alert thresholds.
const (
	DefaultTempThreshold     = 30.0
	DefaultHumidityThreshold = 60.0
)

// AlertEngine classifies readings against fixed thresholds.
type AlertEngine struct {
	TempThreshold     float64
	HumidityThreshold float64
}

// NewAlertEngine returns an engine with the given thresholds. A zero
// threshold falls back to its default.
func NewAlertEngine(tempThreshold, humidityThreshold float64) AlertEngine {
	if tempThreshold == 0 {
		tempThreshold = DefaultTempThreshold
	}
	if humidityThreshold == 0 {
		humidityThreshold = DefaultHumidityThreshold
	}
	return AlertEngine{TempThreshold: tempThreshold, HumidityThreshold: humidityThreshold}
}

// Classify returns AlertFlood when both temperature and humidity are at or
// above their thresholds, AlertNormal otherwise. Invalid readings are Normal.
func (a AlertEngine) Classify(r models.SensorReading) models.AlertMode {
	if !r.Valid {
		return models.AlertNormal
	}
	if r.TempC >= a.TempThreshold && r.HumidityPct >= a.HumidityThreshold {
		return models.AlertFlood
	}
	return models.AlertNormal
}
