package actuator

import (
	"sync"

	"github.com/rs/zerolog"
)

// LogOutput is an Output without hardware; it records and logs changes.
type LogOutput struct {
	mu     sync.Mutex
	on     bool
	sets   int
	logger zerolog.Logger
}

// NewLogOutput returns an output that only logs and records its state.
func NewLogOutput(logger zerolog.Logger) *LogOutput {
	return &LogOutput{logger: logger}
}

// Set records and logs the requested state.
func (o *LogOutput) Set(on bool) error {
	o.mu.Lock()
	o.on = on
	o.sets++
	o.mu.Unlock()

	o.logger.Debug().Bool("on", on).Msg("Output set")
	return nil
}

// On reports the last value set.
func (o *LogOutput) On() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.on
}

// Sets returns how many times Set was called.
func (o *LogOutput) Sets() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sets
}

// Close is a no-op.
func (o *LogOutput) Close() error { return nil }
