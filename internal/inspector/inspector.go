package inspector

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/brensch/rarsweep/internal/db"
)

// eventSummary holds what an exported log says about one event type.
type eventSummary struct {
	event        string
	count        int
	minTimestamp int64 // epoch ms
	maxTimestamp int64
	totalMs      int64 // sum of recorded durations
	timed        int   // rows carrying a duration
}

// Report is the summary of one exported event log.
type Report struct {
	File     string
	Rows     int
	Runs     int
	Archives int
	events   []eventSummary
}

// InspectParquet reads an event log written by db.ExportParquet and
// summarizes it by event type.
func InspectParquet(path string, logger *slog.Logger) (Report, error) {
	logger.Debug("Reading exported event log.", "file", path)
	rows, err := db.ReadParquet(path)
	if err != nil {
		return Report{}, err
	}
	report := Summarize(rows)
	report.File = path
	logger.Debug("Event log summarized.", "rows", report.Rows, "event_types", len(report.events))
	return report, nil
}

// Summarize groups rows by event type.
func Summarize(rows []db.LedgerRow) Report {
	runs := map[string]bool{}
	archives := map[string]bool{}
	byEvent := map[string]*eventSummary{}

	for _, r := range rows {
		runs[r.RunID] = true
		if r.Archive != nil {
			archives[*r.Archive] = true
		}
		s, ok := byEvent[r.Event]
		if !ok {
			s = &eventSummary{event: r.Event, minTimestamp: r.Timestamp, maxTimestamp: r.Timestamp}
			byEvent[r.Event] = s
		}
		s.count++
		s.minTimestamp = min(s.minTimestamp, r.Timestamp)
		s.maxTimestamp = max(s.maxTimestamp, r.Timestamp)
		if r.DurationMs != nil {
			s.totalMs += *r.DurationMs
			s.timed++
		}
	}

	report := Report{Rows: len(rows), Runs: len(runs), Archives: len(archives)}
	for _, s := range byEvent {
		report.events = append(report.events, *s)
	}
	sort.Slice(report.events, func(i, j int) bool { return report.events[i].event < report.events[j].event })
	return report
}

// Count returns how many rows carry event.
func (r Report) Count(event string) int {
	for _, s := range r.events {
		if s.event == event {
			return s.count
		}
	}
	return 0
}

// Print writes the report in the same layout as the state command.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "--- Event Log Summary: %s ---\n", r.File)
	fmt.Fprintf(w, "Rows: %d | Runs: %d | Archives: %d\n", r.Rows, r.Runs, r.Archives)
	if len(r.events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}
	fmt.Fprintf(w, "%-15s %8s  %-20s  %-20s  %s\n", "EVENT", "COUNT", "FIRST", "LAST", "AVG DURATION")
	for _, s := range r.events {
		avg := "-"
		if s.timed > 0 {
			avg = (time.Duration(s.totalMs/int64(s.timed)) * time.Millisecond).String()
		}
		fmt.Fprintf(w, "%-15s %8d  %-20s  %-20s  %s\n",
			s.event, s.count, formatMillis(s.minTimestamp), formatMillis(s.maxTimestamp), avg)
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}
