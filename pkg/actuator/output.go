package actuator

import (
	"context"
	"time"
)

// Output is a binary actuator such as a relay or lamp.
type Output interface {
	Set(on bool) error
	Close() error
}

// Blink toggles out the given number of times, interval apart, starting
// from on, and leaves it off.
func Blink(ctx context.Context, out Output, toggles int, interval time.Duration) error {
	on := true
	for i := 0; i < toggles; i++ {
		if err := out.Set(on); err != nil {
			return err
		}
		on = !on

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			_ = out.Set(false)
			return ctx.Err()
		case <-t.C:
		}
	}
	return out.Set(false)
}
