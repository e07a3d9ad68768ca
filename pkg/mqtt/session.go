package mqtt

import "context"

// MessageHandler receives one inbound message. Handlers are invoked from
// Session.Poll on the caller's goroutine, never from the client library.
type MessageHandler func(topic string, payload []byte)

// Session is a publish/subscribe session with the broker. Subscriptions do
// not survive a dropped session and must be redone after every Connect.
type Session interface {
	// Connect makes a single attempt to establish the session.
	Connect(ctx context.Context) error
	// IsConnected reports whether the session is currently established.
	IsConnected() bool
	// Subscribe registers handler for messages arriving on topic.
	Subscribe(topic string, qos byte, handler MessageHandler) error
	// Publish sends payload on topic without waiting for broker acknowledgement
	// beyond what the client library requires to hand the message off.
	Publish(topic string, qos byte, retained bool, payload []byte) error
	// Poll dispatches queued inbound messages and returns how many were handled.
	Poll() int
	// Disconnect closes the session, waiting up to quiesce milliseconds.
	Disconnect(quiesce uint)
	// Broker returns the broker address, for diagnostics.
	Broker() string
}
