// Package telemetry provides fire-and-forget event capture for the
// memory layer. Capture never blocks and never fails the caller; sinks
// that cannot keep up drop events.
package telemetry

import "log"

// Client receives usage events. Implementations must return quickly;
// slow delivery belongs on the implementation's own goroutine.
type Client interface {
	Capture(event string, properties map[string]interface{})
}

// Noop discards all events. The default when no sink is configured.
type Noop struct{}

// Capture does nothing.
func (Noop) Capture(event string, properties map[string]interface{}) {}

// LogSink writes events to the process log. Useful for development.
type LogSink struct{}

// Capture logs the event with its property count.
func (LogSink) Capture(event string, properties map[string]interface{}) {
	log.Printf("[TELEMETRY] %s (%d properties)", event, len(properties))
}
