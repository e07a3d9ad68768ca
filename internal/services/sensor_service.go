package services

import (
	"context"
	"time"

	"github.com/benmeehan/envnode/internal/models"
	"github.com/benmeehan/envnode/pkg/sensor"
	"github.com/rs/zerolog"
)

// SensorService turns raw sensor measurements into readings.
type SensorService struct {
	source sensor.Source
	logger zerolog.Logger
	now    func() time.Time
}

// NewSensorService initializes a new SensorService over source.
func NewSensorService(source sensor.Source, logger zerolog.Logger) *SensorService {
	return &SensorService{source: source, logger: logger, now: time.Now}
}

// Sample reads humidity and temperature once. A read error or any NaN
// channel yields a reading with Valid set to false.
func (s *SensorService) Sample(ctx context.Context) models.SensorReading {
	at := s.now()

	m, err := s.source.Read(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Sensor read returned an error")
		return models.InvalidReading(at)
	}
	if !m.Valid() {
		return models.InvalidReading(at)
	}

	return models.SensorReading{
		HumidityPct: m.HumidityPct,
		TempC:       m.TempC,
		TempF:       m.TempF,
		HeatIndexC:  sensor.HeatIndex(m.TempC, m.HumidityPct, false),
		HeatIndexF:  sensor.HeatIndex(m.TempF, m.HumidityPct, true),
		Valid:       true,
		Timestamp:   at,
	}
}
