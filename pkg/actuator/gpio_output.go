package actuator

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOOutput drives a single GPIO line through the Linux character device.
type GPIOOutput struct {
	mu       sync.Mutex
	line     *gpiocdev.Line
	inverted bool
}

// NewGPIOOutput requests offset on chip (e.g. "gpiochip0") as an output,
// initially off. With inverted set the line is driven low for on.
func NewGPIOOutput(chip string, offset int, inverted bool) (*GPIOOutput, error) {
	initial := 0
	if inverted {
		initial = 1
	}
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(initial),
		gpiocdev.WithConsumer("envnode"))
	if err != nil {
		return nil, fmt.Errorf("request gpio %s:%d: %w", chip, offset, err)
	}
	return &GPIOOutput{line: line, inverted: inverted}, nil
}

// Set drives the line, honouring the inverted flag.
func (g *GPIOOutput) Set(on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	value := 0
	if on != g.inverted {
		value = 1
	}
	if err := g.line.SetValue(value); err != nil {
		return fmt.Errorf("set gpio %d: %w", g.line.Offset(), err)
	}
	return nil
}

// Close releases the line.
func (g *GPIOOutput) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.line.Close()
}
