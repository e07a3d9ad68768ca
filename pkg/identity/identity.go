package identity

import (
	"strings"

	"github.com/benmeehan/envnode/internal/constants"
)

// Identity holds the node's immutable naming: the device ID used in topics
// and commands, the MQTT client ID used at session establishment, and the
// topic prefix.
type Identity struct {
	DeviceID    string
	ClientID    string
	TopicPrefix string
}

// DeviceInfoInterface defines read access to the device identity and the
// topics and commands derived from it.
type DeviceInfoInterface interface {
	GetDeviceID() string
	GetClientID() string
	CommandTopic() string
	StateTopic() string
	HumidityTopic() string
	TemperatureTopic() string
	OnCommand() string
	OffCommand() string
}

// DeviceInfo implements DeviceInfoInterface over a fixed Identity.
type DeviceInfo struct {
	Identity Identity
}

// NewDeviceInfo initializes a new DeviceInfo instance, falling back to the
// default identity for empty fields.
func NewDeviceInfo(deviceID, clientID, topicPrefix string) DeviceInfoInterface {
	if deviceID == "" {
		deviceID = constants.DefaultDeviceID
	}
	if clientID == "" {
		clientID = constants.DefaultClientID
	}
	if topicPrefix == "" {
		topicPrefix = constants.DefaultTopicPrefix
	}
	return &DeviceInfo{
		Identity: Identity{
			DeviceID:    deviceID,
			ClientID:    clientID,
			TopicPrefix: strings.TrimRight(topicPrefix, "/"),
		},
	}
}

// GetDeviceID returns the current device ID.
func (d *DeviceInfo) GetDeviceID() string {
	return d.Identity.DeviceID
}

// GetClientID returns the MQTT client ID presented when a session is established.
func (d *DeviceInfo) GetClientID() string {
	return d.Identity.ClientID
}

func (d *DeviceInfo) topic(suffix string) string {
	return d.Identity.TopicPrefix + "/" + d.Identity.DeviceID + "/" + suffix
}

// CommandTopic is the inbound topic carrying on/off commands.
func (d *DeviceInfo) CommandTopic() string {
	return d.topic(constants.CommandTopicSuffix)
}

// StateTopic is the outbound topic carrying the output state.
func (d *DeviceInfo) StateTopic() string {
	return d.topic(constants.StateTopicSuffix)
}

// HumidityTopic is the outbound topic carrying relative humidity.
func (d *DeviceInfo) HumidityTopic() string {
	return d.topic(constants.HumidityTopicSuffix)
}

// TemperatureTopic is the outbound topic carrying the Celsius temperature.
func (d *DeviceInfo) TemperatureTopic() string {
	return d.topic(constants.TemperatureTopicSuffix)
}

// OnCommand is the exact payload that switches the output on.
func (d *DeviceInfo) OnCommand() string {
	return d.Identity.DeviceID + constants.CommandOnSuffix
}

// OffCommand is the exact payload that switches the output off.
func (d *DeviceInfo) OffCommand() string {
	return d.Identity.DeviceID + constants.CommandOffSuffix
}
