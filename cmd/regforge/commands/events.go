package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/regforge/regforge/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [run:id] STAGE KIND peripheral
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	header := fmt.Sprintf("%s [run:%s] %-7s %s", ts, shortenRunID(event.RunID), event.Stage, event.Kind)
	if event.Peripheral != "" {
		header += " " + event.Peripheral
	}
	fmt.Fprintln(w, header)

	switch {
	case event.Start != nil:
		fmt.Fprintf(w, "  Selector: %s\n", event.Start.Selector)
		if event.Start.Package != "" {
			fmt.Fprintf(w, "  Package: %s\n", event.Start.Package)
		}
		fmt.Fprintf(w, "  Peripherals: %d\n", event.Start.Peripherals)
		if event.Source != "" {
			fmt.Fprintf(w, "  Source: %s\n", event.Source)
		}
	case event.Unit != nil:
		fmt.Fprintf(w, "  %s %s (%d bytes)\n", event.Unit.Kind, event.Unit.Name, event.Unit.Size)
	case event.Collision != nil:
		c := event.Collision
		fmt.Fprintf(w, "  %s: %q -> %s (wanted %s)\n", c.Scope, c.Original, c.Assigned, c.Sanitized)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	case event.Done != nil:
		d := event.Done
		fmt.Fprintf(w, "  Units: %d, Collisions: %d, Failures: %d\n", d.Units, d.Collisions, d.Failures)
		if d.NoMatch {
			fmt.Fprintln(w, "  No peripheral matched")
		}
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(d.Duration))
	}

	fmt.Fprintln(w) // Blank line between events
}

func formatErrorDetails(w io.Writer, e *log.ErrorEvent) {
	var loc []string
	if e.Register != "" {
		loc = append(loc, "register "+e.Register)
	}
	if e.Field != "" {
		loc = append(loc, "field "+e.Field)
	}
	if len(loc) > 0 {
		fmt.Fprintf(w, "  At: %s\n", strings.Join(loc, ", "))
	}
	fmt.Fprintf(w, "  Error: %s\n", e.Message)
}

// shortenRunID returns the first 8 characters of the run ID.
func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	default:
		return d.Round(time.Millisecond).String()
	}
}

// ParseKindFlag parses an event kind from a command-line flag (case-insensitive).
func ParseKindFlag(s string) (log.Kind, error) {
	for _, k := range []log.Kind{log.KindStart, log.KindUnit, log.KindCollision, log.KindError, log.KindDone} {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid kind: %s (must be start, unit, collision, error, or done)", s)
}

// ParseStageFlag parses a pipeline stage from a command-line flag (case-insensitive).
func ParseStageFlag(s string) (log.Stage, error) {
	for _, st := range []log.Stage{log.StageRun, log.StageResolve, log.StageLayout, log.StageEmit} {
		if strings.EqualFold(s, st.String()) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("invalid stage: %s (must be run, resolve, layout, or emit)", s)
}

// RunEventsView reads the trace at path and prints the events that pass
// filter.
func RunEventsView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer reader.Close()

	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}

// RunEventsExport writes the events that pass filter as JSON lines.
func RunEventsExport(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer reader.Close()

	encoder := json.NewEncoder(output)
	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}
