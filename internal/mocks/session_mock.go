package mocks

import (
	"context"

	"github.com/benmeehan/envnode/pkg/mqtt"
	"github.com/stretchr/testify/mock"
)

// MockSession is a mock implementation of the mqtt.Session interface
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSession) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockSession) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	args := m.Called(topic, qos, handler)
	return args.Error(0)
}

func (m *MockSession) Publish(topic string, qos byte, retained bool, payload []byte) error {
	args := m.Called(topic, qos, retained, payload)
	return args.Error(0)
}

func (m *MockSession) Poll() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockSession) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

func (m *MockSession) Broker() string {
	args := m.Called()
	return args.String(0)
}
