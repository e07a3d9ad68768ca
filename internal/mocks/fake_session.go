package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/benmeehan/envnode/pkg/mqtt"
)

// PublishedMessage is one message recorded by FakeSession.
type PublishedMessage struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

// FakeSession is an in-memory mqtt.Session that records publishes and
// subscriptions in order. ConnectFailures makes the first N Connect calls fail.
type FakeSession struct {
	mu sync.Mutex

	ConnectFailures int
	ConnectCalls    int
	Connected       bool

	Subscriptions []string
	Published     []PublishedMessage

	// OnSubscribe, when set, runs after every successful Subscribe.
	OnSubscribe func(topic string)

	handlers map[string]mqtt.MessageHandler
	queue    []PublishedMessage
}

// NewFakeSession returns a disconnected FakeSession.
func NewFakeSession() *FakeSession {
	return &FakeSession{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *FakeSession) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	f.ConnectCalls++
	if f.ConnectCalls <= f.ConnectFailures {
		return errors.New("connection refused")
	}
	f.Connected = true
	f.handlers = make(map[string]mqtt.MessageHandler)
	return nil
}

func (f *FakeSession) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Drop simulates the broker closing the session.
func (f *FakeSession) Drop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connected = false
	f.handlers = make(map[string]mqtt.MessageHandler)
}

func (f *FakeSession) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	if !f.Connected {
		f.mu.Unlock()
		return errors.New("mqtt session is not connected")
	}
	f.Subscriptions = append(f.Subscriptions, topic)
	f.handlers[topic] = handler
	hook := f.OnSubscribe
	f.mu.Unlock()

	if hook != nil {
		hook(topic)
	}
	return nil
}

func (f *FakeSession) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Connected {
		return errors.New("mqtt session is not connected")
	}
	f.Published = append(f.Published, PublishedMessage{
		Topic:    topic,
		Payload:  string(payload),
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

// Inject queues an inbound message for the next Poll.
func (f *FakeSession) Inject(topic, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, PublishedMessage{Topic: topic, Payload: payload})
}

func (f *FakeSession) Poll() int {
	f.mu.Lock()
	queued := f.queue
	f.queue = nil
	handlers := make(map[string]mqtt.MessageHandler, len(f.handlers))
	for k, v := range f.handlers {
		handlers[k] = v
	}
	f.mu.Unlock()

	handled := 0
	for _, msg := range queued {
		if h, ok := handlers[msg.Topic]; ok {
			h(msg.Topic, []byte(msg.Payload))
			handled++
		}
	}
	return handled
}

func (f *FakeSession) Disconnect(uint) {
	f.Drop()
}

func (f *FakeSession) Broker() string {
	return "tcp://fake:1883"
}

// Payloads returns the published payloads in order.
func (f *FakeSession) Payloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Published))
	for _, p := range f.Published {
		out = append(out, p.Payload)
	}
	return out
}
