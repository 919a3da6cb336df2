package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/regforge/regforge/pkg/log"
)

// Stats holds aggregate statistics about an event log.
type Stats struct {
	TotalEvents  int
	EventsByKind map[log.Kind]int
	Runs         map[string]*RunStats
	TimeRange    struct {
		Start time.Time
		End   time.Time
	}
}

// RunStats holds statistics for a single generation run.
type RunStats struct {
	FirstSeen   time.Time
	Selector    string
	Source      string
	Peripherals map[string]bool
	Units       int
	Collisions  int
	Errors      int
	Duration    time.Duration
	Finished    bool
}

// CollectStats reads the whole event log at path.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByKind: make(map[log.Kind]int),
		Runs:         make(map[string]*RunStats),
	}

	for event, err := range reader.All() {
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByKind[event.Kind]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		run, ok := stats.Runs[event.RunID]
		if !ok {
			run = &RunStats{
				FirstSeen:   event.Timestamp,
				Source:      event.Source,
				Peripherals: make(map[string]bool),
			}
			stats.Runs[event.RunID] = run
		}
		if event.Peripheral != "" {
			run.Peripherals[event.Peripheral] = true
		}

		switch {
		case event.Start != nil:
			run.Selector = event.Start.Selector
		case event.Unit != nil:
			run.Units++
		case event.Collision != nil:
			run.Collisions++
		case event.Error != nil:
			run.Errors++
		case event.Done != nil:
			run.Duration = event.Done.Duration
			run.Finished = true
		}
	}
	return stats, nil
}

// RunEventsStats analyzes the event log and prints statistics.
func RunEventsStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== regforge Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Kind:")
	for _, kind := range []log.Kind{log.KindStart, log.KindUnit, log.KindCollision, log.KindError, log.KindDone} {
		if count := stats.EventsByKind[kind]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", kind.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Runs: %d\n", len(stats.Runs))
	if len(stats.Runs) == 0 {
		return
	}

	type runInfo struct {
		id    string
		stats *RunStats
	}
	runs := make([]runInfo, 0, len(stats.Runs))
	for id, rs := range stats.Runs {
		runs = append(runs, runInfo{id, rs})
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].stats.FirstSeen.Before(runs[j].stats.FirstSeen)
	})

	fmt.Fprintln(w)
	for _, r := range runs {
		status := "unfinished"
		if r.stats.Finished {
			status = formatDuration(r.stats.Duration)
		}
		fmt.Fprintf(w, "  [%s] %s: %d units, %d collisions, %d errors (%s)\n",
			shortenRunID(r.id), r.stats.Selector, r.stats.Units, r.stats.Collisions, r.stats.Errors, status)
		if r.stats.Source != "" {
			fmt.Fprintf(w, "           Source: %s\n", r.stats.Source)
		}
		if n := len(r.stats.Peripherals); n > 0 {
			fmt.Fprintf(w, "           Peripherals: %d\n", n)
		}
	}
}
