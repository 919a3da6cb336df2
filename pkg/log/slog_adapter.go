package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
// Useful with -v when the trace should go to the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a SlogAdapter that logs at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter that logs at the given level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event as a single "generate" record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.String("kind", event.Kind.String()),
		slog.String("stage", event.Stage.String()),
	}
	if event.Peripheral != "" {
		attrs = append(attrs, slog.String("peripheral", event.Peripheral))
	}
	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}

	switch {
	case event.Start != nil:
		attrs = append(attrs,
			slog.String("selector", event.Start.Selector),
			slog.Int("peripherals", event.Start.Peripherals),
		)
		if event.Start.Package != "" {
			attrs = append(attrs, slog.String("package", event.Start.Package))
		}
	case event.Unit != nil:
		attrs = append(attrs,
			slog.String("unit_kind", event.Unit.Kind),
			slog.String("unit_name", event.Unit.Name),
			slog.Int("unit_size", event.Unit.Size),
		)
	case event.Collision != nil:
		attrs = append(attrs,
			slog.String("scope", event.Collision.Scope),
			slog.String("original", event.Collision.Original),
			slog.String("sanitized", event.Collision.Sanitized),
			slog.String("assigned", event.Collision.Assigned),
		)
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Register != "" {
			attrs = append(attrs, slog.String("register", event.Error.Register))
		}
		if event.Error.Field != "" {
			attrs = append(attrs, slog.String("field", event.Error.Field))
		}
	case event.Done != nil:
		attrs = append(attrs,
			slog.Int("units", event.Done.Units),
			slog.Int("collisions", event.Done.Collisions),
			slog.Int("failures", event.Done.Failures),
			slog.Bool("no_match", event.Done.NoMatch),
			slog.Duration("duration", event.Done.Duration),
		)
	}

	a.logger.LogAttrs(context.Background(), a.level, "generate", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
