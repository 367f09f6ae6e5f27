package db

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
)

// Ledger writes the event log rows of one run.
type Ledger struct {
	db     *sql.DB
	runID  string
	logger *slog.Logger
}

// NewLedger binds dbConn to a fresh run id. The schema must exist.
func NewLedger(dbConn *sql.DB, logger *slog.Logger) *Ledger {
	runID := uuid.NewString()
	return &Ledger{
		db:     dbConn,
		runID:  runID,
		logger: logger.With(slog.String("run_id", runID)),
	}
}

func (l *Ledger) RunID() string {
	return l.runID
}

// Record stores rec under this run. The ledger is bookkeeping only, so a
// failed insert is logged and otherwise ignored.
func (l *Ledger) Record(ctx context.Context, rec JobRecord) {
	rec.RunID = l.runID
	if err := LogJobEvent(ctx, l.db, rec); err != nil {
		l.logger.Warn("Failed to record job event.", "event", rec.Event, "dir", rec.Dir, "error", err)
	}
}

// CompletedArchives returns archives extracted successfully in any run.
func (l *Ledger) CompletedArchives(ctx context.Context) (map[string]bool, error) {
	return GetCompletedArchives(ctx, l.db, l.logger)
}
