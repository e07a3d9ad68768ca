package services_test

import (
	"math"
	"testing"

	"github.com/benmeehan/envnode/internal/models"
	"github.com/benmeehan/envnode/internal/services"
	"github.com/stretchr/testify/assert"
)

func reading(humidity, tempC float64) models.SensorReading {
	return models.SensorReading{HumidityPct: humidity, TempC: tempC, TempF: tempC*1.8 + 32, Valid: true}
}

func TestAlertEngine_Classify(t *testing.T) {
	engine := services.NewAlertEngine(0, 0)

	cases := []struct {
		name     string
		reading  models.SensorReading
		expected models.AlertMode
	}{
		{"both at threshold", reading(60, 30), models.AlertFlood},
		{"both above", reading(85, 34.5), models.AlertFlood},
		{"temperature just below", reading(60, 29.9), models.AlertNormal},
		{"humidity just below", reading(59.9, 30), models.AlertNormal},
		{"mild", reading(55.2, 24.1), models.AlertNormal},
		{"invalid", models.SensorReading{HumidityPct: math.NaN(), TempC: math.NaN()}, models.AlertNormal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, engine.Classify(tc.reading))
		})
	}
}

func TestAlertEngine_CustomThresholds(t *testing.T) {
	engine := services.NewAlertEngine(25, 50)

	assert.Equal(t, models.AlertFlood, engine.Classify(reading(50, 25)))
	assert.Equal(t, models.AlertNormal, engine.Classify(reading(49, 40)))
}
