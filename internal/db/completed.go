package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// GetCompletedArchives returns the primary archives that have been extracted
// successfully in any run. Keys are archive paths.
func GetCompletedArchives(ctx context.Context, dbConn *sql.DB, logger *slog.Logger) (map[string]bool, error) {
	logger.Debug("Querying database for completed archives...")
	completed := make(map[string]bool)

	query := `
		SELECT DISTINCT archive
		FROM rar_event_log
		WHERE event = ? AND archive IS NOT NULL;
	`
	rows, err := dbConn.QueryContext(ctx, query, EventExtractEnd)
	if err != nil {
		logger.Error("Failed to query for completed archives", "error", err, "event", EventExtractEnd)
		return nil, fmt.Errorf("query completed archives: %w", err)
	}
	defer rows.Close()

	var scanErrors error
	for rows.Next() {
		var archive string
		if err := rows.Scan(&archive); err != nil {
			logger.Error("Failed to scan completed archive", "error", err)
			scanErrors = errors.Join(scanErrors, fmt.Errorf("scan completed archive: %w", err))
			continue
		}
		if archive != "" {
			completed[archive] = true
		}
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error iterating over completed archive query results", "error", err)
		scanErrors = errors.Join(scanErrors, fmt.Errorf("iterate completed archives: %w", err))
		return completed, scanErrors
	}

	logger.Info("Found completed archives in DB.", slog.Int("count", len(completed)))
	return completed, scanErrors
}
