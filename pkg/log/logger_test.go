package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{Timestamp: time.Now(), RunID: "run", Kind: KindStart}
	logger.Log(event)

	event.Start = &StartEvent{Selector: "*"}
	logger.Log(event)

	event.Start = nil
	event.Collision = &CollisionEvent{Original: "x"}
	logger.Log(event)

	event.Collision = nil
	event.Error = &ErrorEvent{Message: "boom"}
	logger.Log(event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})

	var _ Logger = &NoopLogger{}
}
