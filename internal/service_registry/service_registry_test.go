package service_registry_test

import (
	"errors"
	"testing"

	"github.com/benmeehan/envnode/internal/mocks"
	"github.com/benmeehan/envnode/internal/service_registry"
	"github.com/benmeehan/envnode/internal/utils"
	"github.com/benmeehan/envnode/pkg/identity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	name     string
	startErr error
	log      *[]string
}

func (s *recordingService) Start() error {
	*s.log = append(*s.log, "start "+s.name)
	return s.startErr
}

func (s *recordingService) Stop() error {
	*s.log = append(*s.log, "stop "+s.name)
	return nil
}

func deviceInfoFor(cfg *utils.Config) identity.DeviceInfoInterface {
	return identity.NewDeviceInfo(cfg.Device.ID, cfg.MQTT.ClientID, cfg.Device.TopicPrefix)
}

func testConfig() *utils.Config {
	var cfg utils.Config
	cfg.MQTT.Broker = "tcp://127.0.0.1:1883"
	cfg.ApplyDefaults()
	return &cfg
}

// TestServiceRegistry_StartStopOrder tests ordered start and reverse-order stop.
func TestServiceRegistry_StartStopOrder(t *testing.T) {
	var log []string
	sr := service_registry.NewServiceRegistry(new(mocks.MockFileOperations), zerolog.Nop())
	sr.RegisterService("a", &recordingService{name: "a", log: &log})
	sr.RegisterService("b", &recordingService{name: "b", log: &log})
	sr.RegisterService("a", &recordingService{name: "dup", log: &log})

	require.NoError(t, sr.StartServices())
	require.NoError(t, sr.StopServices())

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
}

// TestServiceRegistry_StartRollback tests that a failed start stops what was started.
func TestServiceRegistry_StartRollback(t *testing.T) {
	var log []string
	sr := service_registry.NewServiceRegistry(new(mocks.MockFileOperations), zerolog.Nop())
	sr.RegisterService("a", &recordingService{name: "a", log: &log})
	sr.RegisterService("b", &recordingService{name: "b", startErr: errors.New("boom"), log: &log})

	err := sr.StartServices()

	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"start a", "start b", "stop a"}, log)
}

// TestServiceRegistry_OpenAndRegister tests building a hardware-free node.
func TestServiceRegistry_OpenAndRegister(t *testing.T) {
	// Setup
	cfg := testConfig()
	sr := service_registry.NewServiceRegistry(new(mocks.MockFileOperations), zerolog.Nop())

	// Execute
	require.NoError(t, sr.OpenPeripherals(cfg, deviceInfoFor(cfg)))
	err := sr.RegisterServices(cfg, deviceInfoFor(cfg))

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, sr.Link)
	assert.NotNil(t, sr.Session)
	assert.Equal(t, "tcp://127.0.0.1:1883", sr.Session.Broker())
	assert.False(t, sr.Session.IsConnected())

	sr.ClosePeripherals()
	assert.Nil(t, sr.Session)
	assert.Nil(t, sr.Output)
}

// TestServiceRegistry_OpenMQTT5 tests selecting the MQTT 5 session.
func TestServiceRegistry_OpenMQTT5(t *testing.T) {
	cfg := testConfig()
	cfg.MQTT.Protocol = "5"
	sr := service_registry.NewServiceRegistry(new(mocks.MockFileOperations), zerolog.Nop())

	require.NoError(t, sr.OpenPeripherals(cfg, deviceInfoFor(cfg)))
	defer sr.ClosePeripherals()

	assert.Equal(t, "tcp://127.0.0.1:1883", sr.Session.Broker())
}

// TestServiceRegistry_OpenFailureCleansUp tests that a failing peripheral closes the others.
func TestServiceRegistry_OpenFailureCleansUp(t *testing.T) {
	cfg := testConfig()
	cfg.Sensor.Type = "serial"
	cfg.Sensor.Serial.Port = "/dev/does-not-exist"
	sr := service_registry.NewServiceRegistry(new(mocks.MockFileOperations), zerolog.Nop())

	err := sr.OpenPeripherals(cfg, deviceInfoFor(cfg))

	assert.ErrorContains(t, err, "open sensor")
	assert.Nil(t, sr.Session)
	assert.Nil(t, sr.Source)
}

// TestServiceRegistry_RegisterRequiresPeripherals tests registration order.
func TestServiceRegistry_RegisterRequiresPeripherals(t *testing.T) {
	cfg := testConfig()
	sr := service_registry.NewServiceRegistry(new(mocks.MockFileOperations), zerolog.Nop())

	err := sr.RegisterServices(cfg, identity.NewDeviceInfo("", "", ""))

	assert.Error(t, err)
}
