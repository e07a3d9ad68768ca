package sensor_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/benmeehan/envnode/pkg/sensor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	in      *strings.Reader
	written bytes.Buffer
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }
func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

// TestSerialSource_ReadMDA tests a streaming station reporting the MDA composite.
func TestSerialSource_ReadMDA(t *testing.T) {
	// Setup
	port := &fakePort{in: strings.NewReader("$WIMDA,29.92,I,1.013,B,24.1,C,,C,55.2,,14.6,C,,T,,M,,N,,M*1F\r\n")}
	src := sensor.NewSerialSourceWithPort(port, "", zerolog.Nop())

	// Execute
	m, err := src.Read(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, port.written.String())
	assert.InDelta(t, 55.2, m.HumidityPct, 1e-9)
	assert.InDelta(t, 24.1, m.TempC, 1e-9)
	assert.InDelta(t, 75.38, m.TempF, 1e-9)
	assert.True(t, m.Valid())

	require.NoError(t, src.Close())
	assert.True(t, port.closed)
}

// TestSerialSource_ReadXDRWithQuery tests a polled transducer answering with XDR.
func TestSerialSource_ReadXDRWithQuery(t *testing.T) {
	port := &fakePort{in: strings.NewReader("$WIXDR,C,24.1,C,TEMP,H,55.2,P,RH*5B\r\n")}
	src := sensor.NewSerialSourceWithPort(port, "$PREAD\r\n", zerolog.Nop())

	m, err := src.Read(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "$PREAD\r\n", port.written.String())
	assert.InDelta(t, 55.2, m.HumidityPct, 1e-9)
	assert.InDelta(t, 24.1, m.TempC, 1e-9)
}

// TestSerialSource_SkipsNoise tests that unrelated and corrupt lines are skipped.
func TestSerialSource_SkipsNoise(t *testing.T) {
	in := strings.Join([]string{
		"boot ok",
		"$GPGGA,092750.000,5321.6802,N,00630.3372,W,1,8,1.03,61.7,M,55.2,M,,*76",
		"$WIXDR,C,99.9,C,TEMP,H,99.9,P,RH*00",
		"$WIXDR,C,34.5,C,TEMP,H,72.0,P,RH*59",
	}, "\r\n") + "\r\n"
	src := sensor.NewSerialSourceWithPort(&fakePort{in: strings.NewReader(in)}, "", zerolog.Nop())

	m, err := src.Read(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 72.0, m.HumidityPct, 1e-9)
	assert.InDelta(t, 34.5, m.TempC, 1e-9)
}

// TestSerialSource_MergesSentences tests quantities reported in separate sentences.
func TestSerialSource_MergesSentences(t *testing.T) {
	in := "$WIXDR,C,24.1,C,TEMP*45\r\n$WIXDR,H,55.2,P,RH*4E\r\n"
	src := sensor.NewSerialSourceWithPort(&fakePort{in: strings.NewReader(in)}, "", zerolog.Nop())

	m, err := src.Read(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 55.2, m.HumidityPct, 1e-9)
	assert.InDelta(t, 24.1, m.TempC, 1e-9)
	assert.True(t, m.Valid())
}

// TestSerialSource_MissingHumidity tests that an empty humidity field reads as NaN, not zero.
func TestSerialSource_MissingHumidity(t *testing.T) {
	port := &fakePort{in: strings.NewReader("$WIMDA,29.92,I,1.013,B,24.1,C,,C,,,,C,,T,,M,,N,,M*1E\r\n")}
	src := sensor.NewSerialSourceWithPort(port, "", zerolog.Nop())

	m, err := src.Read(context.Background())

	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.HumidityPct))
	assert.InDelta(t, 24.1, m.TempC, 1e-9)
	assert.False(t, m.Valid())
}

// TestSerialSource_NoWeatherSentence tests a port carrying nothing usable.
func TestSerialSource_NoWeatherSentence(t *testing.T) {
	port := &fakePort{in: strings.NewReader("garbage\n")}
	src := sensor.NewSerialSourceWithPort(port, "", zerolog.Nop())

	m, err := src.Read(context.Background())

	assert.Error(t, err)
	assert.False(t, m.Valid())
}

// TestSerialSource_NoReply tests a silent port.
func TestSerialSource_NoReply(t *testing.T) {
	port := &fakePort{in: strings.NewReader("")}
	src := sensor.NewSerialSourceWithPort(port, "", zerolog.Nop())

	_, err := src.Read(context.Background())
	assert.Error(t, err)
}

type fakeRegisters struct {
	values map[uint16]int16
	fail   map[uint16]bool
}

func (f *fakeRegisters) ReadHoldingRegisters(_ context.Context, address, quantity uint16) ([]byte, error) {
	if f.fail[address] {
		return nil, errors.New("i/o timeout")
	}
	out := make([]byte, 2*quantity)
	binary.BigEndian.PutUint16(out, uint16(f.values[address]))
	return out, nil
}

func TestModbusSource_Read(t *testing.T) {
	regs := &fakeRegisters{values: map[uint16]int16{0: 552, 1: -15}}
	src := sensor.NewModbusSourceWithClient(sensor.ModbusConfig{HumidityReg: 0, TemperatureReg: 1}, regs, zerolog.Nop())

	m, err := src.Read(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 55.2, m.HumidityPct, 1e-9)
	assert.InDelta(t, -1.5, m.TempC, 1e-9)
	assert.InDelta(t, 29.3, m.TempF, 1e-9)
	assert.NoError(t, src.Close())
}

func TestModbusSource_PartialFailure(t *testing.T) {
	regs := &fakeRegisters{values: map[uint16]int16{0: 600}, fail: map[uint16]bool{1: true}}
	src := sensor.NewModbusSourceWithClient(sensor.ModbusConfig{HumidityReg: 0, TemperatureReg: 1}, regs, zerolog.Nop())

	m, err := src.Read(context.Background())

	assert.Error(t, err)
	assert.InDelta(t, 60.0, m.HumidityPct, 1e-9)
	assert.True(t, math.IsNaN(m.TempC))
	assert.False(t, m.Valid())
}

func TestNewModbusSource_RejectsAddress(t *testing.T) {
	_, err := sensor.NewModbusSource(sensor.ModbusConfig{Address: "udp://10.0.0.2:502"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestSimSource_Steady(t *testing.T) {
	src := sensor.NewSimSource(sensor.SimConfig{HumidityPct: 65, TempC: 31})

	m, err := src.Read(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 65.0, m.HumidityPct)
	assert.Equal(t, 31.0, m.TempC)
	assert.InDelta(t, 87.8, m.TempF, 1e-9)
}

func TestSimSource_AlwaysFails(t *testing.T) {
	src := sensor.NewSimSource(sensor.SimConfig{FailureRate: 1})

	m, err := src.Read(context.Background())

	assert.Error(t, err)
	assert.False(t, m.Valid())
}

func TestSimSource_DriftStaysInRange(t *testing.T) {
	src := sensor.NewSimSource(sensor.SimConfig{HumidityPct: 99, TempC: 24, Drift: 5, Seed: 7})
	for i := 0; i < 100; i++ {
		m, err := src.Read(context.Background())
		require.NoError(t, err)
		assert.LessOrEqual(t, m.HumidityPct, 100.0)
		assert.GreaterOrEqual(t, m.HumidityPct, 0.0)
	}
}
