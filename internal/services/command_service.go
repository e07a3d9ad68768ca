package services

import (
	"github.com/benmeehan/envnode/internal/constants"
	"github.com/benmeehan/envnode/internal/models"
	"github.com/benmeehan/envnode/pkg/actuator"
	"github.com/benmeehan/envnode/pkg/identity"
	"github.com/benmeehan/envnode/pkg/mqtt"
	"github.com/rs/zerolog"
)

// CommandService applies on/off commands received on the device's command
// topic to the output.
type CommandService struct {
	deviceInfo identity.DeviceInfoInterface
	qos        int
	output     actuator.Output
	state      *models.NodeState
	logger     zerolog.Logger
}

// NewCommandService initializes a new CommandService.
func NewCommandService(deviceInfo identity.DeviceInfoInterface, qos int, output actuator.Output,
	state *models.NodeState, logger zerolog.Logger) *CommandService {
	return &CommandService{
		deviceInfo: deviceInfo,
		qos:        qos,
		output:     output,
		state:      state,
		logger:     logger,
	}
}

// Subscribe registers HandleCommand on the command topic. It is meant to be
// run as a session-up hook, since subscriptions do not survive reconnects.
func (cs *CommandService) Subscribe(session mqtt.Session) error {
	topic := cs.deviceInfo.CommandTopic()
	if err := session.Subscribe(topic, byte(cs.qos), cs.HandleCommand); err != nil {
		cs.logger.Error().Err(err).Str("topic", topic).Msg("Failed to subscribe to command topic")
		return err
	}
	cs.logger.Info().Str("topic", topic).Msg("Subscribed to command topic")
	return nil
}

// Decode maps a payload to the requested output value.
func (cs *CommandService) Decode(payload []byte) (bool, error) {
	switch string(payload) {
	case cs.deviceInfo.OnCommand():
		return true, nil
	case cs.deviceInfo.OffCommand():
		return false, nil
	default:
		return false, constants.ErrUnknownCommand
	}
}

// HandleCommand processes one inbound command message.
func (cs *CommandService) HandleCommand(topic string, payload []byte) {
	cs.logger.Info().Str("topic", topic).Str("command", string(payload)).Msg("Received command")

	on, err := cs.Decode(payload)
	if err != nil {
		cs.logger.Warn().Err(err).Str("command", string(payload)).Msg("Ignoring command")
		return
	}

	cs.state.Actuator.OutputOn = on
	if err := cs.output.Set(on); err != nil {
		cs.logger.Error().Err(err).Bool("on", on).Msg("Failed to drive output")
	}
}
