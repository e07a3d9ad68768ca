package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/tarm/serial"
)

const (
	lcdCommand     = 0xFE
	lcdClear       = 0x01
	lcdSetPosition = 0x80
)

// lcdRowOffsets are the DDRAM start addresses of each row on a 16x2 HD44780.
var lcdRowOffsets = []int{0x00, 0x40}

// SerialLCD drives an HD44780 character display through a serial backpack
// speaking the SerLCD command set.
type SerialLCD struct {
	mu   sync.Mutex
	port io.WriteCloser
	cols int
	rows int
}

// NewSerialLCD opens the backpack's serial port.
func NewSerialLCD(port string, baudRate, cols, rows int) (*SerialLCD, error) {
	p, err := serial.OpenPort(&serial.Config{Name: port, Baud: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open lcd port %s: %w", port, err)
	}
	return NewSerialLCDWithPort(p, cols, rows), nil
}

// NewSerialLCDWithPort builds a SerialLCD on an already open port.
func NewSerialLCDWithPort(port io.WriteCloser, cols, rows int) *SerialLCD {
	if rows > len(lcdRowOffsets) {
		rows = len(lcdRowOffsets)
	}
	return &SerialLCD{port: port, cols: cols, rows: rows}
}

func (l *SerialLCD) write(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.port.Write(b); err != nil {
		return fmt.Errorf("write lcd: %w", err)
	}
	return nil
}

// Clear sends the clear display command.
func (l *SerialLCD) Clear() error {
	return l.write([]byte{lcdCommand, lcdClear})
}

// SetCursor sends the set DDRAM address command for col, row.
func (l *SerialLCD) SetCursor(col, row int) error {
	if row < 0 || row >= l.rows || col < 0 || col >= l.cols {
		return fmt.Errorf("cursor (%d,%d) outside %dx%d display", col, row, l.cols, l.rows)
	}
	return l.write([]byte{lcdCommand, byte(lcdSetPosition | (col + lcdRowOffsets[row]))})
}

// Print writes printable ASCII; anything else is replaced by '?'.
func (l *SerialLCD) Print(text string) error {
	buf := make([]byte, 0, len(text))
	for _, r := range text {
		if r < 0x20 || r > 0x7E {
			r = '?'
		}
		buf = append(buf, byte(r))
	}
	if len(buf) > l.cols {
		buf = buf[:l.cols]
	}
	return l.write(buf)
}

// Close closes the serial port.
func (l *SerialLCD) Close() error {
	return l.port.Close()
}
