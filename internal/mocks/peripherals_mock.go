package mocks

import (
	"context"

	"github.com/benmeehan/envnode/pkg/sensor"
	"github.com/stretchr/testify/mock"
)

// MockLink is a mock implementation of the link.Link interface
type MockLink struct {
	mock.Mock
}

func (m *MockLink) Connected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockLink) Attach(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLink) Name() string {
	args := m.Called()
	return args.String(0)
}

// MockSource is a mock implementation of the sensor.Source interface
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Read(ctx context.Context) (sensor.Measurement, error) {
	args := m.Called(ctx)
	return args.Get(0).(sensor.Measurement), args.Error(1)
}

func (m *MockSource) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockOutput is a mock implementation of the actuator.Output interface
type MockOutput struct {
	mock.Mock
}

func (m *MockOutput) Set(on bool) error {
	args := m.Called(on)
	return args.Error(0)
}

func (m *MockOutput) Close() error {
	args := m.Called()
	return args.Error(0)
}
