package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // Driver
)

// Constants for event types
const (
	EventVisited       = "visited"
	EventExtractStart  = "extract_start"
	EventExtractEnd    = "extract_end"
	EventExtractError  = "extract_error"
	EventRemoveEnd     = "remove_end"
	EventRemoveError   = "remove_error"
	EventSkipCompleted = "skip_completed"
)

// Schema SQL
const schemaSequenceSQL = `CREATE SEQUENCE IF NOT EXISTS rar_event_log_id_seq;`
const schemaTableSQL = `
CREATE TABLE IF NOT EXISTS rar_event_log (
    log_id          BIGINT PRIMARY KEY DEFAULT nextval('rar_event_log_id_seq'),
    run_id          VARCHAR NOT NULL,      -- one uuid per invocation of run
    job_id          BIGINT NOT NULL,
    dir             VARCHAR NOT NULL,
    archive         VARCHAR,               -- primary archive, when known
    event           VARCHAR NOT NULL,
    event_timestamp TIMESTAMP NOT NULL,
    message         VARCHAR,
    duration_ms     BIGINT
);
CREATE INDEX IF NOT EXISTS idx_rar_event_log_archive ON rar_event_log (archive, event);
CREATE INDEX IF NOT EXISTS idx_rar_event_log_run ON rar_event_log (run_id);
`

// JobRecord is one row of the event log.
type JobRecord struct {
	RunID    string
	JobID    uint64
	Dir      string
	Archive  string
	Event    string
	Message  string
	Duration *time.Duration
}

// InitializeSchema creates the sequence and tables in the correct order.
func InitializeSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSequenceSQL)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("failed to execute sequence setup: %w", err)
	}
	_, err = db.Exec(schemaTableSQL)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("failed to execute table/index setup: %w", err)
	}
	return nil
}

// LogJobEvent inserts a new event record into the log.
func LogJobEvent(ctx context.Context, db *sql.DB, rec JobRecord) error {
	query := `
        INSERT INTO rar_event_log (run_id, job_id, dir, archive, event, event_timestamp, message, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?);
    `
	var durationMs sql.NullInt64
	if rec.Duration != nil {
		durationMs = sql.NullInt64{Int64: rec.Duration.Milliseconds(), Valid: true}
	}

	_, err := db.ExecContext(ctx, query,
		rec.RunID,
		int64(rec.JobID),
		rec.Dir,
		sql.NullString{String: rec.Archive, Valid: rec.Archive != ""},
		rec.Event,
		time.Now().UTC(),
		sql.NullString{String: rec.Message, Valid: rec.Message != ""},
		durationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log event '%s' for '%s': %w", rec.Event, rec.Dir, err)
	}
	return nil
}

// DisplayJobHistory queries and prints the event log, newest first.
func DisplayJobHistory(ctx context.Context, db *sql.DB, w io.Writer, eventFilter string, limit int) error {
	query := `
        SELECT run_id, job_id, dir, archive, event, event_timestamp, message, duration_ms
        FROM rar_event_log
    `
	args := []any{}
	argCounter := 1

	if eventFilter != "" {
		query += fmt.Sprintf(" WHERE event = $%d", argCounter)
		args = append(args, eventFilter)
		argCounter++
	}

	query += fmt.Sprintf(" ORDER BY event_timestamp DESC, log_id DESC LIMIT $%d", argCounter)
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query event log: %w \n Query: %s \n Args: %v", err, query, args)
	}
	defer rows.Close()

	fmt.Fprintf(w, "--- Event Log History (Limit %d) ---\n", limit)
	fmt.Fprintf(w, "%-8s | %-6s | %-14s | %-25s | %-10s | %s\n", "Run", "Job", "Event", "Timestamp (UTC)", "DurationMS", "Archive/Details")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	count := 0
	for rows.Next() {
		var runID, dir, event string
		var jobID int64
		var timestamp time.Time
		var archive, message sql.NullString
		var durationMs sql.NullInt64
		if err := rows.Scan(&runID, &jobID, &dir, &archive, &event, &timestamp, &message, &durationMs); err != nil {
			return fmt.Errorf("failed to scan event log row: %w", err)
		}

		durationStr := ""
		if durationMs.Valid {
			durationStr = fmt.Sprintf("%d", durationMs.Int64)
		}

		details := dir
		if archive.Valid && archive.String != "" {
			details = filepath.Join(filepath.Base(dir), filepath.Base(archive.String))
		}
		if message.Valid && message.String != "" {
			details += fmt.Sprintf(" (%s)", message.String)
		}

		fmt.Fprintf(w, "%-8s | %-6d | %-14s | %-25s | %-10s | %s\n",
			shortRunID(runID), jobID, event, timestamp.Format(time.RFC3339), durationStr, details)
		count++
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating event log rows: %w", err)
	}
	fmt.Fprintf(w, "Displayed %d records.\n", count)
	return nil
}

func shortRunID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
