package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benmeehan/envnode/internal/service_registry"
	"github.com/benmeehan/envnode/internal/utils"
	"github.com/benmeehan/envnode/pkg/actuator"
	"github.com/benmeehan/envnode/pkg/file"
	"github.com/benmeehan/envnode/pkg/identity"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration from file
	fileClient := file.NewFileService()
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	if config.Log.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil {
		logger.Warn().Str("level", config.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	if config.MQTT.UniqueClientID {
		config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
	}
	logger.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

	deviceInfo := identity.NewDeviceInfo(config.Device.ID, config.MQTT.ClientID, config.Device.TopicPrefix)

	serviceRegistry := service_registry.NewServiceRegistry(fileClient, logger)
	if err := serviceRegistry.OpenPeripherals(config, deviceInfo); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open peripherals")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := actuator.Blink(ctx, serviceRegistry.Output, config.Actuator.BlinkToggles, config.Actuator.BlinkInterval); err != nil {
		logger.Warn().Err(err).Msg("Startup blink interrupted")
	}

	if err := serviceRegistry.RegisterServices(config, deviceInfo); err != nil {
		serviceRegistry.ClosePeripherals()
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	if err := serviceRegistry.StartServices(); err != nil {
		serviceRegistry.ClosePeripherals()
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().
		Str("device_id", deviceInfo.GetDeviceID()).
		Str("command_topic", deviceInfo.CommandTopic()).
		Msg("All services started successfully")

	// Handle graceful shutdown
	<-ctx.Done()

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop services")
	}
	serviceRegistry.ClosePeripherals()
}
