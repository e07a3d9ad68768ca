package service_registry

import (
	"fmt"

	"github.com/benmeehan/envnode/internal/utils"
	"github.com/benmeehan/envnode/pkg/actuator"
	"github.com/benmeehan/envnode/pkg/display"
	"github.com/benmeehan/envnode/pkg/file"
	"github.com/benmeehan/envnode/pkg/link"
	"github.com/benmeehan/envnode/pkg/mqtt"
	"github.com/benmeehan/envnode/pkg/sensor"
	"github.com/rs/zerolog"
)

func newLink(config *utils.Config, logger zerolog.Logger) (link.Link, error) {
	switch config.Link.Type {
	case "static":
		return link.StaticLink{}, nil
	case "interface":
		return link.NewInterfaceLink(config.Link.Interface, logger), nil
	case "wifi":
		return link.NewWiFiLink(link.WiFiConfig{
			Interface:   config.Link.Interface,
			SSID:        config.Link.SSID,
			Password:    config.Link.Password,
			JoinTimeout: config.Link.JoinTimeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown link type %q", config.Link.Type)
	}
}

func newSession(config *utils.Config, clientID string, fileClient file.FileOperations, logger zerolog.Logger) (mqtt.Session, error) {
	opts := mqtt.Options{
		Broker:         config.MQTT.Broker,
		ClientID:       clientID,
		CACertificate:  config.MQTT.CACertificate,
		Username:       config.MQTT.Username,
		Password:       config.MQTT.Password,
		KeepAlive:      config.MQTT.KeepAlive,
		ConnectTimeout: config.MQTT.ConnectTimeout,
		InboundBuffer:  config.MQTT.InboundBuffer,
	}

	switch config.MQTT.Protocol {
	case "5":
		return mqtt.NewMqttV5Service(opts, fileClient, logger)
	case "3.1.1", "":
		s := mqtt.NewMqttService(fileClient, logger)
		if err := s.Initialize(opts); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported mqtt protocol %q", config.MQTT.Protocol)
	}
}

func newSource(config *utils.Config, logger zerolog.Logger) (sensor.Source, error) {
	switch config.Sensor.Type {
	case "sim":
		sim := config.Sensor.Sim
		return sensor.NewSimSource(sensor.SimConfig{
			HumidityPct: sim.HumidityPct,
			TempC:       sim.TempC,
			Drift:       sim.Drift,
			FailureRate: sim.FailureRate,
		}), nil
	case "modbus":
		mb := config.Sensor.Modbus
		return sensor.NewModbusSource(sensor.ModbusConfig{
			Address:           mb.Address,
			SlaveID:           byte(mb.SlaveID),
			BaudRate:          mb.BaudRate,
			Timeout:           mb.Timeout,
			HumidityReg:       uint16(mb.HumidityRegister),
			TemperatureReg:    uint16(mb.TemperatureRegister),
			HumidityScale:     mb.HumidityScale,
			TemperatureScale:  mb.TemperatureScale,
			TemperatureOffset: mb.TemperatureOffset,
		}, logger)
	case "serial":
		s := config.Sensor.Serial
		return sensor.NewSerialSource(s.Port, s.BaudRate, s.Timeout, s.Query, logger)
	default:
		return nil, fmt.Errorf("unknown sensor type %q", config.Sensor.Type)
	}
}

func newSink(config *utils.Config, logger zerolog.Logger) (display.Sink, error) {
	switch config.Display.Type {
	case "log":
		return display.NewBufferSink(config.Display.Columns, config.Display.Rows, logger), nil
	case "serial":
		return display.NewSerialLCD(config.Display.Port, config.Display.BaudRate, config.Display.Columns, config.Display.Rows)
	default:
		return nil, fmt.Errorf("unknown display type %q", config.Display.Type)
	}
}

func newOutput(config *utils.Config, logger zerolog.Logger) (actuator.Output, error) {
	switch config.Actuator.Type {
	case "log":
		return actuator.NewLogOutput(logger), nil
	case "gpio":
		return actuator.NewGPIOOutput(config.Actuator.Chip, config.Actuator.Line, config.Actuator.Inverted)
	default:
		return nil, fmt.Errorf("unknown actuator type %q", config.Actuator.Type)
	}
}
