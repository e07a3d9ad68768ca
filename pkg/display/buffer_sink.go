package display

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// BufferSink keeps the screen in memory and logs every rendered frame.
// It backs the "log" display type and the tests.
type BufferSink struct {
	mu     sync.Mutex
	cols   int
	rows   [][]rune
	col    int
	row    int
	logger zerolog.Logger
}

// NewBufferSink returns an empty cols x rows framebuffer.
func NewBufferSink(cols, rows int, logger zerolog.Logger) *BufferSink {
	b := &BufferSink{cols: cols, rows: make([][]rune, rows), logger: logger}
	b.reset()
	return b
}

func (b *BufferSink) reset() {
	for i := range b.rows {
		b.rows[i] = []rune(strings.Repeat(" ", b.cols))
	}
	b.col, b.row = 0, 0
}

// Clear blanks every row and homes the cursor.
func (b *BufferSink) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
	return nil
}

// SetCursor moves the write position. Positions off the screen are an error.
func (b *BufferSink) SetCursor(col, row int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if row < 0 || row >= len(b.rows) || col < 0 || col >= b.cols {
		return fmt.Errorf("cursor (%d,%d) outside %dx%d display", col, row, b.cols, len(b.rows))
	}
	b.col, b.row = col, row
	return nil
}

// Print writes text at the cursor; characters past the last column are dropped.
func (b *BufferSink) Print(text string) error {
	b.mu.Lock()
	for _, r := range text {
		if b.col >= b.cols {
			break
		}
		b.rows[b.row][b.col] = r
		b.col++
	}
	lines := b.linesLocked()
	b.mu.Unlock()

	b.logger.Debug().Strs("screen", lines).Msg("Display updated")
	return nil
}

// Lines returns the screen contents with trailing spaces removed.
func (b *BufferSink) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.linesLocked()
}

func (b *BufferSink) linesLocked() []string {
	out := make([]string, len(b.rows))
	for i, r := range b.rows {
		out[i] = strings.TrimRight(string(r), " ")
	}
	return out
}

// Close is a no-op.
func (b *BufferSink) Close() error { return nil }
