package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/benmeehan/envnode/internal/mocks"
	"github.com/benmeehan/envnode/internal/models"
	"github.com/benmeehan/envnode/internal/services"
	"github.com/benmeehan/envnode/pkg/actuator"
	"github.com/benmeehan/envnode/pkg/identity"
	"github.com/benmeehan/envnode/pkg/sensor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type node struct {
	link    *scriptedLink
	session *mocks.FakeSession
	output  *actuator.LogOutput
	sink    *frameSink
	state   *models.NodeState
	cycle   *services.CycleService
}

func newNode(t *testing.T, source sensor.Source, linkFailures, sessionFailures int) *node {
	t.Helper()
	logger := zerolog.Nop()

	n := &node{
		session: mocks.NewFakeSession(),
		output:  actuator.NewLogOutput(logger),
		sink:    newFrameSink(),
		state:   models.NewNodeState(),
	}
	n.link = &scriptedLink{failures: linkFailures, session: n.session}
	n.session.ConnectFailures = sessionFailures

	device := identity.NewDeviceInfo("", "", "")
	connectivity := services.NewConnectivityService(n.link, n.session, n.state, time.Millisecond, time.Millisecond, logger)
	commands := services.NewCommandService(device, 0, n.output, n.state, logger)
	connectivity.OnSessionUp(commands.Subscribe)

	n.cycle = services.NewCycleService(
		services.CycleConfig{Period: 0, PublishPause: time.Millisecond, DisplayPause: time.Millisecond},
		connectivity,
		n.session,
		services.NewTelemetryService(device, n.session, 0, false, n.state, logger),
		services.NewSensorService(source, logger),
		services.NewAlertEngine(30, 60),
		services.NewDisplayService(n.sink, 16, logger),
		n.state,
		logger,
	)
	return n
}

func steadySource(humidity, tempC float64) *mocks.MockSource {
	source := new(mocks.MockSource)
	source.On("Read", mock.Anything).Return(sensor.Measurement{
		HumidityPct: humidity,
		TempC:       tempC,
		TempF:       sensor.CelsiusToFahrenheit(tempC),
	}, nil)
	return source
}

// TestCycleService_BootScenario tests a first cycle after a flaky boot: two link
// failures, one session failure, and an on command waiting on the broker.
func TestCycleService_BootScenario(t *testing.T) {
	// Setup
	n := newNode(t, steadySource(55.2, 24.1), 2, 1)
	n.session.OnSubscribe = func(topic string) {
		n.session.Inject(topic, "lamp109@on|")
	}

	// Execute
	result, err := n.cycle.RunOnce(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, n.link.attaches)
	assert.Equal(t, 2, n.session.ConnectCalls)
	assert.Equal(t, []string{"/TEF/lamp109/cmd"}, n.session.Subscriptions)
	assert.Equal(t, 1, result.Commands)
	assert.True(t, n.state.Actuator.OutputOn)
	assert.True(t, n.output.On())

	require.Len(t, n.session.Published, 3)
	assert.Equal(t, mocks.PublishedMessage{Topic: "/TEF/lamp109/attrs", Payload: "s|on"}, n.session.Published[0])
	assert.Equal(t, mocks.PublishedMessage{Topic: "/TEF/lamp109/attrs/u", Payload: "55.20"}, n.session.Published[1])
	assert.Equal(t, mocks.PublishedMessage{Topic: "/TEF/lamp109/attrs/t", Payload: "24.10"}, n.session.Published[2])

	assert.Contains(t, n.sink.frames, []string{"Umidade: 55.20%", "Temp: 24.10 C"})
	assert.Equal(t, []string{"Umidade: OK", "Temperatura: OK"}, n.sink.Lines())
	assert.Equal(t, models.AlertNormal, result.Mode)
	assert.False(t, result.Abandoned)
}

// TestCycleService_FloodAlert tests the alert screens for a hot, humid reading.
func TestCycleService_FloodAlert(t *testing.T) {
	n := newNode(t, steadySource(60, 30), 0, 0)

	result, err := n.cycle.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.AlertFlood, result.Mode)
	assert.Equal(t, []string{"s|off", "60.00", "30.00"}, n.session.Payloads())
	assert.Contains(t, n.sink.frames, []string{"Umidade:Alta", "Temperatura:Alta"})
	assert.Equal(t, []string{"ALERTA DE", "ENCHENTE !!!"}, n.sink.Lines())
}

// TestCycleService_InvalidReading tests that a failed read abandons the cycle
// after the state publish.
func TestCycleService_InvalidReading(t *testing.T) {
	source := new(mocks.MockSource)
	source.On("Read", mock.Anything).Return(sensor.NaNMeasurement(), nil)
	n := newNode(t, source, 0, 0)

	result, err := n.cycle.RunOnce(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Abandoned)
	assert.Equal(t, []string{"s|off"}, n.session.Payloads())
	assert.Empty(t, n.sink.frames)
}

// TestCycleService_StatePublishedEveryCycle tests that an unchanged state is published each cycle.
func TestCycleService_StatePublishedEveryCycle(t *testing.T) {
	n := newNode(t, steadySource(55.2, 24.1), 0, 0)

	_, err := n.cycle.RunOnce(context.Background())
	require.NoError(t, err)
	_, err = n.cycle.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"s|off", "55.20", "24.10", "s|off", "55.20", "24.10"}, n.session.Payloads())
	assert.Equal(t, 1, n.session.ConnectCalls)
}

// TestCycleService_ReconnectsBetweenCycles tests that a dropped session is re-established
// and resubscribed on the next cycle.
func TestCycleService_ReconnectsBetweenCycles(t *testing.T) {
	n := newNode(t, steadySource(55.2, 24.1), 0, 0)

	_, err := n.cycle.RunOnce(context.Background())
	require.NoError(t, err)

	n.session.Drop()
	n.session.Inject("/TEF/lamp109/cmd", "lamp109@on|")

	result, err := n.cycle.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n.session.ConnectCalls)
	assert.Len(t, n.session.Subscriptions, 2)
	assert.Equal(t, 1, result.Commands)
	assert.Equal(t, "s|on", n.session.Published[3].Payload)
}

// TestCycleService_RunOnce_Cancelled tests that a cancelled context ends the cycle.
func TestCycleService_RunOnce_Cancelled(t *testing.T) {
	n := newNode(t, steadySource(55.2, 24.1), 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.cycle.RunOnce(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, n.session.Published)
}

// TestCycleService_StartStop tests the service lifecycle.
func TestCycleService_StartStop(t *testing.T) {
	// Setup
	n := newNode(t, steadySource(55.2, 24.1), 0, 0)

	// Execute
	err := n.cycle.Start()

	// Assert
	assert.NoError(t, err)

	err = n.cycle.Start()
	assert.Error(t, err)
	assert.Equal(t, "cycle service is already running", err.Error())

	assert.Eventually(t, func() bool { return len(n.session.Payloads()) >= 3 }, time.Second, 5*time.Millisecond)

	err = n.cycle.Stop()
	assert.NoError(t, err)

	err = n.cycle.Stop()
	assert.Error(t, err)
	assert.Equal(t, "cycle service is not running", err.Error())
}
