package link

import "context"

// Link is the network link the MQTT session rides on.
type Link interface {
	// Connected reports whether the link is currently usable.
	Connected() bool
	// Attach makes one attempt to bring the link up.
	Attach(ctx context.Context) error
	Name() string
}

// StaticLink is a link managed outside the process, always reported up.
type StaticLink struct{}

// Connected always reports true.
func (StaticLink) Connected() bool { return true }
// Attach does nothing.
func (StaticLink) Attach(context.Context) error { return nil }
// Name returns "static".
func (StaticLink) Name() string { return "static" }
