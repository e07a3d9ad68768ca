package constants

import "errors"

// Command suffixes appended to the device ID on the command topic.
// The trailing "|" is part of the command and must match exactly.
const (
	CommandOnSuffix  = "@on|"
	CommandOffSuffix = "@off|"
)

// Payloads published on the state-attributes topic.
const (
	// StatePayloadOn reports the output as switched on
	StatePayloadOn = "s|on"
	// StatePayloadOff reports the output as switched off
	StatePayloadOff = "s|off"
)

var (
	// ErrUnknownCommand is returned when a command payload matches neither the on nor the off command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrSessionNotConnected is returned by session operations attempted without a broker session.
	ErrSessionNotConnected = errors.New("mqtt session is not connected")
	// ErrLinkDown is returned when the network link is not attached.
	ErrLinkDown = errors.New("network link is down")
	// ErrInvalidReading is returned when a reading with unread channels is offered for publishing.
	ErrInvalidReading = errors.New("invalid sensor reading")
)
