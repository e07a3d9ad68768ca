package mqtt

import (
	"strings"

	"github.com/rs/zerolog"
)

// DefaultInboundBuffer is the number of inbound messages held between polls.
const DefaultInboundBuffer = 16

type inboundMessage struct {
	handler MessageHandler
	topic   string
	payload []byte
}

// inboundQueue hands messages from the client library's goroutine to the
// goroutine that calls poll.
type inboundQueue struct {
	messages chan inboundMessage
	logger   zerolog.Logger
}

func newInboundQueue(size int, logger zerolog.Logger) *inboundQueue {
	if size <= 0 {
		size = DefaultInboundBuffer
	}
	return &inboundQueue{
		messages: make(chan inboundMessage, size),
		logger:   logger,
	}
}

// enqueue never blocks; when the queue is full the new message is dropped.
func (q *inboundQueue) enqueue(handler MessageHandler, topic string, payload []byte) {
	msg := inboundMessage{
		handler: handler,
		topic:   topic,
		payload: append([]byte(nil), payload...),
	}
	select {
	case q.messages <- msg:
		q.logger.Debug().Str("topic", topic).Int("size", len(payload)).Msg("Inbound message queued")
	default:
		q.logger.Warn().Str("topic", topic).Msg("Inbound queue full, dropping message")
	}
}

// poll drains the messages queued at the time of the call.
func (q *inboundQueue) poll() int {
	n := len(q.messages)
	handled := 0
	for i := 0; i < n; i++ {
		select {
		case msg := <-q.messages:
			msg.handler(msg.topic, msg.payload)
			handled++
		default:
			return handled
		}
	}
	return handled
}

// topicMatches reports whether topic matches an MQTT subscription filter,
// honouring the "+" and "#" wildcards.
func topicMatches(filter, topic string) bool {
	if filter == topic {
		return true
	}
	fparts := strings.Split(filter, "/")
	tparts := strings.Split(topic, "/")
	for i, f := range fparts {
		if f == "#" {
			return true
		}
		if i >= len(tparts) {
			return false
		}
		if f != "+" && f != tparts[i] {
			return false
		}
	}
	return len(fparts) == len(tparts)
}
