package service_registry

import (
	"errors"
	"fmt"
	"io"

	"github.com/benmeehan/envnode/internal/models"
	"github.com/benmeehan/envnode/internal/registry"
	"github.com/benmeehan/envnode/internal/services"
	"github.com/benmeehan/envnode/internal/utils"
	"github.com/benmeehan/envnode/pkg/actuator"
	"github.com/benmeehan/envnode/pkg/display"
	"github.com/benmeehan/envnode/pkg/file"
	"github.com/benmeehan/envnode/pkg/identity"
	"github.com/benmeehan/envnode/pkg/link"
	"github.com/benmeehan/envnode/pkg/mqtt"
	"github.com/benmeehan/envnode/pkg/sensor"
	"github.com/rs/zerolog"
)

// ServiceRegistry owns the node's peripherals and manages the lifecycle of
// the services built on them.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	fileClient  file.FileOperations
	Logger      zerolog.Logger

	State   *models.NodeState
	Link    link.Link
	Session mqtt.Session
	Source  sensor.Source
	Sink    display.Sink
	Output  actuator.Output
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(fileClient file.FileOperations, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		fileClient: fileClient,
		Logger:     logger,
		State:      models.NewNodeState(),
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// OpenPeripherals builds the link, broker session, sensor, display and
// output from config, in that order. The session identifies itself with the
// client ID of deviceInfo. On failure everything already opened is closed
// again.
func (sr *ServiceRegistry) OpenPeripherals(config *utils.Config, deviceInfo identity.DeviceInfoInterface) error {
	steps := []struct {
		name string
		open func() error
	}{
		{"link", func() error {
			l, err := newLink(config, sr.Logger)
			if err == nil {
				sr.Link = l
			}
			return err
		}},
		{"mqtt", func() error {
			s, err := newSession(config, deviceInfo.GetClientID(), sr.fileClient, sr.Logger)
			if err == nil {
				sr.Session = s
			}
			return err
		}},
		{"sensor", func() error {
			src, err := newSource(config, sr.Logger)
			if err == nil {
				sr.Source = src
			}
			return err
		}},
		{"display", func() error {
			sink, err := newSink(config, sr.Logger)
			if err == nil {
				sr.Sink = sink
			}
			return err
		}},
		{"actuator", func() error {
			out, err := newOutput(config, sr.Logger)
			if err == nil {
				sr.Output = out
			}
			return err
		}},
	}

	for _, step := range steps {
		if err := step.open(); err != nil {
			sr.Logger.Error().Err(err).Str("peripheral", step.name).Msg("Failed to open peripheral")
			sr.ClosePeripherals()
			return fmt.Errorf("open %s: %w", step.name, err)
		}
		sr.Logger.Debug().Str("peripheral", step.name).Msg("Peripheral ready")
	}
	return nil
}

// ClosePeripherals disconnects the session, drives the output off and
// closes every opened peripheral.
func (sr *ServiceRegistry) ClosePeripherals() {
	if sr.Session != nil {
		sr.Session.Disconnect(250)
		sr.Session = nil
	}
	if sr.Output != nil {
		if err := sr.Output.Set(false); err != nil {
			sr.Logger.Warn().Err(err).Msg("Failed to switch output off")
		}
	}

	closers := []struct {
		name   string
		closer io.Closer
	}{
		{"actuator", sr.Output},
		{"display", sr.Sink},
		{"sensor", sr.Source},
	}
	for _, c := range closers {
		if c.closer == nil {
			continue
		}
		if err := c.closer.Close(); err != nil {
			sr.Logger.Warn().Err(err).Str("peripheral", c.name).Msg("Failed to close peripheral")
		}
	}
	sr.Output, sr.Sink, sr.Source = nil, nil, nil
}

// RegisterServices wires the node's components on the opened peripherals
// and registers the cycle service.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deviceInfo identity.DeviceInfoInterface) error {
	if sr.Link == nil || sr.Session == nil || sr.Source == nil || sr.Sink == nil || sr.Output == nil {
		return errors.New("peripherals are not open")
	}

	connectivity := services.NewConnectivityService(sr.Link, sr.Session, sr.State,
		config.Link.RetryDelay, config.MQTT.RetryDelay, sr.Logger.With().Str("service", "connectivity").Logger())

	commands := services.NewCommandService(deviceInfo, config.MQTT.QOS, sr.Output, sr.State,
		sr.Logger.With().Str("service", "command").Logger())
	connectivity.OnSessionUp(commands.Subscribe)

	telemetry := services.NewTelemetryService(deviceInfo, sr.Session, config.MQTT.QOS, config.MQTT.Retain, sr.State,
		sr.Logger.With().Str("service", "telemetry").Logger())

	cycle := services.NewCycleService(
		services.CycleConfig{
			Period:       config.Cycle.Period,
			PublishPause: config.Cycle.PublishPause,
			DisplayPause: config.Cycle.DisplayPause,
		},
		connectivity,
		sr.Session,
		telemetry,
		services.NewSensorService(sr.Source, sr.Logger.With().Str("service", "sensor").Logger()),
		services.NewAlertEngine(config.Cycle.TempThreshold, config.Cycle.HumidityThreshold),
		services.NewDisplayService(sr.Sink, config.Display.Columns, sr.Logger.With().Str("service", "display").Logger()),
		sr.State,
		sr.Logger.With().Str("service", "cycle").Logger(),
	)

	sr.RegisterService("cycle", cycle)
	sr.Logger.Info().Strs("services", sr.serviceKeys).Msg("Registered services in order")
	return nil
}
