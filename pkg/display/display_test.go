package display_test

import (
	"bytes"
	"testing"

	"github.com/benmeehan/envnode/pkg/display"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSink_Render(t *testing.T) {
	b := display.NewBufferSink(16, 2, zerolog.Nop())

	require.NoError(t, b.Clear())
	require.NoError(t, b.SetCursor(0, 0))
	require.NoError(t, b.Print("Umidade: 55.20%"))
	require.NoError(t, b.SetCursor(0, 1))
	require.NoError(t, b.Print("Temp: 24.10 C"))

	assert.Equal(t, []string{"Umidade: 55.20%", "Temp: 24.10 C"}, b.Lines())
}

func TestBufferSink_TruncatesAndClears(t *testing.T) {
	b := display.NewBufferSink(16, 2, zerolog.Nop())

	require.NoError(t, b.SetCursor(4, 1))
	require.NoError(t, b.Print("a very long line of text"))
	assert.Equal(t, []string{"", "    a very long"}, b.Lines())

	require.NoError(t, b.Clear())
	assert.Equal(t, []string{"", ""}, b.Lines())
}

func TestBufferSink_CursorBounds(t *testing.T) {
	b := display.NewBufferSink(16, 2, zerolog.Nop())
	assert.Error(t, b.SetCursor(0, 2))
	assert.Error(t, b.SetCursor(16, 0))
}

type nopCloser struct{ bytes.Buffer }

func (*nopCloser) Close() error { return nil }

func TestSerialLCD_Commands(t *testing.T) {
	port := &nopCloser{}
	lcd := display.NewSerialLCDWithPort(port, 16, 2)

	require.NoError(t, lcd.Clear())
	require.NoError(t, lcd.SetCursor(3, 1))
	require.NoError(t, lcd.Print("ALERTA DE"))

	want := []byte{0xFE, 0x01, 0xFE, 0x80 | (3 + 0x40)}
	want = append(want, []byte("ALERTA DE")...)
	assert.Equal(t, want, port.Bytes())
}

func TestSerialLCD_PrintSanitizes(t *testing.T) {
	port := &nopCloser{}
	lcd := display.NewSerialLCDWithPort(port, 16, 2)

	require.NoError(t, lcd.Print("24.1°C and more text"))

	assert.Equal(t, "24.1?C and more ", port.String())
}
