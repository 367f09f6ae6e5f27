package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// LedgerRow is the Parquet layout of one event log row.
type LedgerRow struct {
	LogID      int64   `parquet:"name=log_id, type=INT64"`
	RunID      string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	JobID      int64   `parquet:"name=job_id, type=INT64"`
	Dir        string  `parquet:"name=dir, type=BYTE_ARRAY, convertedtype=UTF8"`
	Archive    *string `parquet:"name=archive, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Event      string  `parquet:"name=event, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Timestamp  int64   `parquet:"name=event_timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Message    *string `parquet:"name=message, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	DurationMs *int64  `parquet:"name=duration_ms, type=INT64, repetitiontype=OPTIONAL"`
}

// ExportParquet writes every event log row to a Snappy-compressed Parquet
// file at path and returns the number of rows written.
func ExportParquet(ctx context.Context, dbConn *sql.DB, path string, logger *slog.Logger) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory for %s: %w", path, err)
	}

	rows, err := dbConn.QueryContext(ctx, `
        SELECT log_id, run_id, job_id, dir, archive, event, event_timestamp, message, duration_ms
        FROM rar_event_log
        ORDER BY log_id;
    `)
	if err != nil {
		return 0, fmt.Errorf("query event log: %w", err)
	}
	defer rows.Close()

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, fmt.Errorf("create parquet %s: %w", path, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(LedgerRow), 4)
	if err != nil {
		fw.Close()
		return 0, fmt.Errorf("init parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	count := 0
	for rows.Next() {
		var row LedgerRow
		var archive, message sql.NullString
		var durationMs sql.NullInt64
		var timestamp time.Time
		if err := rows.Scan(&row.LogID, &row.RunID, &row.JobID, &row.Dir, &archive, &row.Event, &timestamp, &message, &durationMs); err != nil {
			pw.WriteStop()
			fw.Close()
			return count, fmt.Errorf("scan event log row: %w", err)
		}
		row.Timestamp = timestamp.UnixMilli()
		if archive.Valid {
			row.Archive = &archive.String
		}
		if message.Valid {
			row.Message = &message.String
		}
		if durationMs.Valid {
			row.DurationMs = &durationMs.Int64
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			fw.Close()
			return count, fmt.Errorf("write parquet row: %w", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		pw.WriteStop()
		fw.Close()
		return count, fmt.Errorf("iterate event log rows: %w", err)
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return count, fmt.Errorf("finalize parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return count, fmt.Errorf("close parquet %s: %w", path, err)
	}
	logger.Info("Event log exported.", slog.String("path", path), slog.Int("rows", count))
	return count, nil
}

// ReadParquet loads an exported event log.
func ReadParquet(path string) ([]LedgerRow, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(LedgerRow), 4)
	if err != nil {
		return nil, fmt.Errorf("init parquet reader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]LedgerRow, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return rows, nil
}
