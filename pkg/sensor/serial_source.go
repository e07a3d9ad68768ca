package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

// DefaultSerialMaxLines bounds how many lines one Read consumes while
// looking for temperature and humidity.
const DefaultSerialMaxLines = 16

// SerialSource reads a weather transducer that reports over NMEA 0183 on a
// serial port. Air temperature and relative humidity are taken from MDA
// (meteorological composite) or XDR (transducer measurement) sentences;
// other sentences are skipped.
type SerialSource struct {
	port     io.ReadWriteCloser
	reader   *bufio.Reader
	query    string // written before each read when the device must be polled
	maxLines int
	logger   zerolog.Logger
	mu       sync.Mutex
}

// NewSerialSource opens the serial port at the given baud rate. query may be
// empty for devices that stream sentences on their own.
func NewSerialSource(port string, baudRate int, timeout time.Duration, query string, logger zerolog.Logger) (*SerialSource, error) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	c := &serial.Config{Name: port, Baud: baudRate, ReadTimeout: timeout}
	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial sensor port %s: %w", port, err)
	}
	return NewSerialSourceWithPort(p, query, logger), nil
}

// NewSerialSourceWithPort builds a SerialSource on an already open port.
func NewSerialSourceWithPort(port io.ReadWriteCloser, query string, logger zerolog.Logger) *SerialSource {
	return &SerialSource{
		port:     port,
		reader:   bufio.NewReader(port),
		query:    query,
		maxLines: DefaultSerialMaxLines,
		logger:   logger,
	}
}

// Read collects temperature and humidity from the next sentences on the
// port. A quantity that was not reported is NaN.
func (s *SerialSource) Read(ctx context.Context) (Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return NaNMeasurement(), err
	}
	if s.query != "" {
		if _, err := io.WriteString(s.port, s.query); err != nil {
			return NaNMeasurement(), fmt.Errorf("write sensor query: %w", err)
		}
	}

	m := NaNMeasurement()
	var readErr error
	for i := 0; i < s.maxLines && !(haveValue(m.HumidityPct) && haveValue(m.TempC)); i++ {
		if err := ctx.Err(); err != nil {
			return m, err
		}

		line, err := s.reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			humidity, tempC, perr := parseWeatherSentence(line)
			if perr != nil {
				s.logger.Debug().Err(perr).Str("line", line).Msg("Skipping serial sensor line")
			}
			if haveValue(humidity) {
				m.HumidityPct = humidity
			}
			if haveValue(tempC) {
				m.TempC = tempC
				m.TempF = CelsiusToFahrenheit(tempC)
			}
		}
		if err != nil {
			readErr = err
			break
		}
	}

	if !haveValue(m.HumidityPct) && !haveValue(m.TempC) {
		if readErr != nil {
			return m, fmt.Errorf("read sensor sentences: %w", readErr)
		}
		return m, errors.New("no temperature or humidity sentence received")
	}
	return m, nil
}

// Close closes the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

func haveValue(v float64) bool {
	return !math.IsNaN(v)
}

// parseWeatherSentence extracts relative humidity and Celsius air
// temperature from an MDA or XDR sentence. Missing quantities are NaN.
func parseWeatherSentence(line string) (humidity, tempC float64, err error) {
	humidity, tempC = math.NaN(), math.NaN()

	sentence, err := nmea.Parse(line)
	if err != nil {
		return humidity, tempC, err
	}

	switch s := sentence.(type) {
	case nmea.MDA:
		// Empty fields parse as zero, so presence is checked on the raw fields.
		if fieldSet(s.Fields, 4) && s.AirTempValid {
			tempC = s.AirTemp
		}
		if fieldSet(s.Fields, 8) {
			humidity = s.RelativeHum
		}
	case nmea.XDR:
		for i, meas := range s.Measurements {
			if !fieldSet(s.Fields, 4*i+1) {
				continue
			}
			switch {
			case meas.TransducerType == nmea.TransducerTemperatureXDR && meas.Unit == "C":
				tempC = meas.Value
			case meas.TransducerType == nmea.TransducerHumidityXDR && meas.Unit == "P":
				humidity = meas.Value
			}
		}
	default:
		return humidity, tempC, fmt.Errorf("unsupported sentence type %s", sentence.DataType())
	}
	return humidity, tempC, nil
}

func fieldSet(fields []string, i int) bool {
	if i >= len(fields) {
		return false
	}
	_, err := strconv.ParseFloat(fields[i], 64)
	return err == nil
}
