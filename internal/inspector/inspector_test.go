package inspector

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brensch/rarsweep/internal/db"
)

func ptr[T any](v T) *T { return &v }

func TestSummarize(t *testing.T) {
	rows := []db.LedgerRow{
		{RunID: "r1", JobID: 1, Archive: ptr("/m/movie.rar"), Event: db.EventExtractStart, Timestamp: 1_000},
		{RunID: "r1", JobID: 1, Archive: ptr("/m/movie.rar"), Event: db.EventExtractEnd, Timestamp: 3_000, DurationMs: ptr(int64(2000))},
		{RunID: "r2", JobID: 1, Archive: ptr("/s/show.rar"), Event: db.EventExtractEnd, Timestamp: 9_000, DurationMs: ptr(int64(4000))},
		{RunID: "r2", JobID: 2, Event: db.EventVisited, Timestamp: 8_000},
	}

	report := Summarize(rows)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 2, report.Runs)
	assert.Equal(t, 2, report.Archives)
	assert.Equal(t, 2, report.Count(db.EventExtractEnd))
	assert.Equal(t, 0, report.Count(db.EventRemoveError))

	var out bytes.Buffer
	report.Print(&out)
	assert.Contains(t, out.String(), "Rows: 4 | Runs: 2 | Archives: 2")
	// Average of 2s and 4s.
	assert.Contains(t, out.String(), "3s")
	assert.Contains(t, out.String(), "1970-01-01 00:00:09")
}

func TestSummarize_Empty(t *testing.T) {
	report := Summarize(nil)
	var out bytes.Buffer
	report.Print(&out)
	assert.Contains(t, out.String(), "No events found.")
}
