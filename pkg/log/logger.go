package log

// Logger receives the events of a generation run.
// A nil Logger is never called; use NoopLogger to disable tracing explicitly.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent use,
	// peripherals are generated in parallel.
	Log(event Event)
}

// NoopLogger discards all events.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
