package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/envnode/internal/constants"
	"github.com/benmeehan/envnode/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Device struct {
		ID          string `yaml:"id"`           // Device id used in topics and commands
		TopicPrefix string `yaml:"topic_prefix"` // Prefix of every topic, e.g. /TEF
	} `yaml:"device"`

	MQTT struct {
		Broker         string        `yaml:"broker"`           // MQTT broker address
		Protocol       string        `yaml:"protocol"`         // "3.1.1" or "5"
		ClientID       string        `yaml:"client_id"`        // MQTT client ID
		UniqueClientID bool          `yaml:"unique_client_id"` // Append a UUID to the client ID
		QOS            int           `yaml:"qos"`              // QoS for publishes and the command subscription
		Retain         bool          `yaml:"retain"`           // Retain flag for telemetry
		CACertificate  string        `yaml:"ca_certificate"`   // Path to the CA certificate
		Username       string        `yaml:"username"`
		Password       string        `yaml:"password"`
		KeepAlive      time.Duration `yaml:"keep_alive"`
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
		InboundBuffer  int           `yaml:"inbound_buffer"` // Inbound messages held between polls
		RetryDelay     time.Duration `yaml:"retry_delay"`    // Delay between session attempts
	} `yaml:"mqtt"`

	Link struct {
		Type        string        `yaml:"type"`      // static, interface or wifi
		Interface   string        `yaml:"interface"` // Network interface to watch
		SSID        string        `yaml:"ssid"`
		Password    string        `yaml:"password"`
		JoinTimeout time.Duration `yaml:"join_timeout"`
		RetryDelay  time.Duration `yaml:"retry_delay"` // Delay between link attempts
	} `yaml:"link"`

	Sensor struct {
		Type   string `yaml:"type"` // sim, modbus or serial
		Modbus struct {
			Address             string        `yaml:"address"` // tcp://host:502 or rtu:///dev/ttyUSB0
			SlaveID             int           `yaml:"slave_id"`
			BaudRate            int           `yaml:"baud_rate"`
			Timeout             time.Duration `yaml:"timeout"`
			HumidityRegister    int           `yaml:"humidity_register"`
			TemperatureRegister int           `yaml:"temperature_register"`
			HumidityScale       float64       `yaml:"humidity_scale"`
			TemperatureScale    float64       `yaml:"temperature_scale"`
			TemperatureOffset   float64       `yaml:"temperature_offset"`
		} `yaml:"modbus"`
		Serial struct {
			Port     string        `yaml:"port"`
			BaudRate int           `yaml:"baud_rate"`
			Timeout  time.Duration `yaml:"timeout"`
			Query    string        `yaml:"query"` // Poll sentence; empty for streaming NMEA devices
		} `yaml:"serial"`
		Sim struct {
			HumidityPct float64 `yaml:"humidity"`
			TempC       float64 `yaml:"temperature"`
			Drift       float64 `yaml:"drift"`
			FailureRate float64 `yaml:"failure_rate"`
		} `yaml:"sim"`
	} `yaml:"sensor"`

	Display struct {
		Type     string `yaml:"type"` // log or serial
		Port     string `yaml:"port"`
		BaudRate int    `yaml:"baud_rate"`
		Columns  int    `yaml:"columns"`
		Rows     int    `yaml:"rows"`
	} `yaml:"display"`

	Actuator struct {
		Type          string        `yaml:"type"` // log or gpio
		Chip          string        `yaml:"chip"`
		Line          int           `yaml:"line"`
		Inverted      bool          `yaml:"inverted"`
		BlinkToggles  int           `yaml:"blink_toggles"`
		BlinkInterval time.Duration `yaml:"blink_interval"`
	} `yaml:"actuator"`

	Cycle struct {
		Period            time.Duration `yaml:"period"`
		PublishPause      time.Duration `yaml:"publish_pause"`
		DisplayPause      time.Duration `yaml:"display_pause"`
		TempThreshold     float64       `yaml:"temperature_threshold"`
		HumidityThreshold float64       `yaml:"humidity_threshold"`
	} `yaml:"cycle"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// LoadConfig loads the YAML configuration from the specified file,
// applies defaults and validates it.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	exists, err := fileClient.IsFileExists(filename)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("configuration file %s not found", filename)
	}

	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", filename, err)
	}
	return &config, nil
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	setString(&c.Device.ID, constants.DefaultDeviceID)
	setString(&c.Device.TopicPrefix, constants.DefaultTopicPrefix)

	setString(&c.MQTT.Protocol, "3.1.1")
	setString(&c.MQTT.ClientID, constants.DefaultClientID)
	setDuration(&c.MQTT.KeepAlive, 60*time.Second)
	setDuration(&c.MQTT.ConnectTimeout, 5*time.Second)
	setInt(&c.MQTT.InboundBuffer, 16)
	setDuration(&c.MQTT.RetryDelay, 2*time.Second)

	setString(&c.Link.Type, "static")
	setDuration(&c.Link.RetryDelay, 100*time.Millisecond)
	setDuration(&c.Link.JoinTimeout, 15*time.Second)

	setString(&c.Sensor.Type, "sim")
	setInt(&c.Sensor.Modbus.SlaveID, 1)
	setInt(&c.Sensor.Modbus.BaudRate, 9600)
	setDuration(&c.Sensor.Modbus.Timeout, time.Second)
	setInt(&c.Sensor.Serial.BaudRate, 9600)
	setDuration(&c.Sensor.Serial.Timeout, 2*time.Second)

	setString(&c.Display.Type, "log")
	setInt(&c.Display.BaudRate, 9600)
	setInt(&c.Display.Columns, constants.DisplayColumns)
	setInt(&c.Display.Rows, constants.DisplayRows)

	setString(&c.Actuator.Type, "log")
	setString(&c.Actuator.Chip, "gpiochip0")
	setInt(&c.Actuator.BlinkToggles, 11)
	setDuration(&c.Actuator.BlinkInterval, 200*time.Millisecond)

	setDuration(&c.Cycle.Period, 2*time.Second)
	setDuration(&c.Cycle.PublishPause, time.Second)
	setDuration(&c.Cycle.DisplayPause, 2*time.Second)
	if c.Cycle.TempThreshold == 0 {
		c.Cycle.TempThreshold = 30
	}
	if c.Cycle.HumidityThreshold == 0 {
		c.Cycle.HumidityThreshold = 60
	}

	setString(&c.Log.Level, "info")
}

// Validate checks the fields that have no usable default.
func (c *Config) Validate() error {
	var errs []error

	if c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required"))
	}
	if c.MQTT.Protocol != "3.1.1" && c.MQTT.Protocol != "5" {
		errs = append(errs, fmt.Errorf("mqtt.protocol %q is not one of 3.1.1, 5", c.MQTT.Protocol))
	}
	if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos %d is out of range", c.MQTT.QOS))
	}

	switch c.Link.Type {
	case "static":
	case "interface":
		if c.Link.Interface == "" {
			errs = append(errs, errors.New("link.interface is required for interface links"))
		}
	case "wifi":
		if c.Link.SSID == "" {
			errs = append(errs, errors.New("link.ssid is required for wifi links"))
		}
		if c.Link.Interface == "" {
			errs = append(errs, errors.New("link.interface is required for wifi links"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown link.type %q", c.Link.Type))
	}

	switch c.Sensor.Type {
	case "sim":
	case "modbus":
		if c.Sensor.Modbus.Address == "" {
			errs = append(errs, errors.New("sensor.modbus.address is required"))
		}
	case "serial":
		if c.Sensor.Serial.Port == "" {
			errs = append(errs, errors.New("sensor.serial.port is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sensor.type %q", c.Sensor.Type))
	}

	switch c.Display.Type {
	case "log":
	case "serial":
		if c.Display.Port == "" {
			errs = append(errs, errors.New("display.port is required for serial displays"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown display.type %q", c.Display.Type))
	}

	switch c.Actuator.Type {
	case "log", "gpio":
	default:
		errs = append(errs, fmt.Errorf("unknown actuator.type %q", c.Actuator.Type))
	}

	return errors.Join(errs...)
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setDuration(v *time.Duration, def time.Duration) {
	if *v == 0 {
		*v = def
	}
}
