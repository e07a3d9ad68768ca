package services

import (
	"fmt"

	"github.com/benmeehan/envnode/internal/constants"
	"github.com/benmeehan/envnode/internal/models"
	"github.com/benmeehan/envnode/pkg/identity"
	"github.com/benmeehan/envnode/pkg/mqtt"
	"github.com/rs/zerolog"
)

// TelemetryService publishes output state and readings.
type TelemetryService struct {
	deviceInfo identity.DeviceInfoInterface
	session    mqtt.Session
	qos        int
	retain     bool
	state      *models.NodeState
	logger     zerolog.Logger
}

// NewTelemetryService initializes a new TelemetryService.
func NewTelemetryService(deviceInfo identity.DeviceInfoInterface, session mqtt.Session, qos int, retain bool,
	state *models.NodeState, logger zerolog.Logger) *TelemetryService {
	return &TelemetryService{
		deviceInfo: deviceInfo,
		session:    session,
		qos:        qos,
		retain:     retain,
		state:      state,
		logger:     logger,
	}
}

// FormatMeasurement renders a value the way it is published.
func FormatMeasurement(v float64) string {
	return fmt.Sprintf("%4.2f", v)
}

func (t *TelemetryService) publish(topic, payload string) error {
	if err := t.session.Publish(topic, byte(t.qos), t.retain, []byte(payload)); err != nil {
		t.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish")
		return err
	}
	t.logger.Debug().Str("topic", topic).Str("payload", payload).Msg("Published")
	return nil
}

// PublishState publishes the current output state. Every call publishes.
func (t *TelemetryService) PublishState() error {
	payload := constants.StatePayloadOff
	if t.state.Actuator.OutputOn {
		payload = constants.StatePayloadOn
	}
	return t.publish(t.deviceInfo.StateTopic(), payload)
}

// PublishReading publishes humidity then temperature. Nothing is published
// for an invalid reading.
func (t *TelemetryService) PublishReading(r models.SensorReading) error {
	if !r.Valid {
		return constants.ErrInvalidReading
	}
	if err := t.publish(t.deviceInfo.HumidityTopic(), FormatMeasurement(r.HumidityPct)); err != nil {
		return err
	}
	return t.publish(t.deviceInfo.TemperatureTopic(), FormatMeasurement(r.TempC))
}
