package sensor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/grid-x/modbus"
	"github.com/rs/zerolog"
)

// ModbusConfig describes a temperature/humidity transmitter reachable over
// Modbus TCP ("tcp://host:502") or RTU ("rtu:///dev/ttyUSB0").
type ModbusConfig struct {
	Address           string
	SlaveID           byte
	BaudRate          int
	Timeout           time.Duration
	HumidityReg       uint16
	TemperatureReg    uint16
	HumidityScale     float64
	TemperatureScale  float64
	TemperatureOffset float64
}

// RegisterReader is the subset of modbus.Client used by ModbusSource.
type RegisterReader interface {
	ReadHoldingRegisters(ctx context.Context, address, quantity uint16) ([]byte, error)
}

// ModbusSource reads humidity and temperature from two holding registers,
// each a signed 16 bit value scaled into engineering units.
type ModbusSource struct {
	config ModbusConfig
	logger zerolog.Logger

	mu      sync.Mutex
	handler io.Closer
	client  RegisterReader
}

// NewModbusSource creates the client handler for config. Connection is
// established lazily on the first read.
func NewModbusSource(config ModbusConfig, logger zerolog.Logger) (*ModbusSource, error) {
	if config.HumidityScale == 0 {
		config.HumidityScale = 0.1
	}
	if config.TemperatureScale == 0 {
		config.TemperatureScale = 0.1
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Second
	}
	if config.SlaveID == 0 {
		config.SlaveID = 1
	}

	s := &ModbusSource{config: config, logger: logger}

	switch {
	case strings.HasPrefix(config.Address, "tcp://"):
		handler := modbus.NewTCPClientHandler(strings.TrimPrefix(config.Address, "tcp://"))
		handler.SlaveID = config.SlaveID
		handler.Timeout = config.Timeout
		handler.ProtocolRecoveryTimeout = 250 * time.Millisecond
		handler.LinkRecoveryTimeout = 5 * time.Second
		s.handler = handler
		s.client = modbus.NewClient(handler)
	case strings.HasPrefix(config.Address, "rtu://"):
		handler := modbus.NewRTUClientHandler(strings.TrimPrefix(config.Address, "rtu://"))
		handler.SlaveID = config.SlaveID
		handler.Timeout = config.Timeout
		handler.BaudRate = config.BaudRate
		if handler.BaudRate == 0 {
			handler.BaudRate = 9600
		}
		handler.DataBits = 8
		handler.Parity = "N"
		handler.StopBits = 1
		s.handler = handler
		s.client = modbus.NewClient(handler)
	default:
		return nil, fmt.Errorf("unsupported modbus address %q", config.Address)
	}
	return s, nil
}

// NewModbusSourceWithClient builds a ModbusSource on an existing register reader.
func NewModbusSourceWithClient(config ModbusConfig, client RegisterReader, logger zerolog.Logger) *ModbusSource {
	if config.HumidityScale == 0 {
		config.HumidityScale = 0.1
	}
	if config.TemperatureScale == 0 {
		config.TemperatureScale = 0.1
	}
	return &ModbusSource{config: config, client: client, logger: logger}
}

func (s *ModbusSource) readRegister(ctx context.Context, addr uint16) (float64, error) {
	data, err := s.client.ReadHoldingRegisters(ctx, addr, 1)
	if err != nil {
		return math.NaN(), fmt.Errorf("read register %d: %w", addr, err)
	}
	if len(data) < 2 {
		return math.NaN(), fmt.Errorf("read register %d: short response (%d bytes)", addr, len(data))
	}
	return float64(int16(binary.BigEndian.Uint16(data))), nil
}

// Read samples both registers. A channel that fails to read is NaN.
func (s *ModbusSource) Read(ctx context.Context) (Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := NaNMeasurement()

	rawHumidity, errH := s.readRegister(ctx, s.config.HumidityReg)
	if errH == nil {
		m.HumidityPct = rawHumidity * s.config.HumidityScale
	}

	rawTemp, errT := s.readRegister(ctx, s.config.TemperatureReg)
	if errT == nil {
		m.TempC = rawTemp*s.config.TemperatureScale + s.config.TemperatureOffset
		m.TempF = CelsiusToFahrenheit(m.TempC)
	}

	if err := errors.Join(errH, errT); err != nil {
		s.logger.Debug().Err(err).Str("address", s.config.Address).Msg("Modbus sensor read failed")
		return m, err
	}
	return m, nil
}

// Close closes the underlying transport.
func (s *ModbusSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler == nil {
		return nil
	}
	return s.handler.Close()
}
