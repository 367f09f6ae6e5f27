package db

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbConn, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })
	require.NoError(t, InitializeSchema(dbConn))
	// Running it twice must be harmless.
	require.NoError(t, InitializeSchema(dbConn))
	return dbConn
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLedger_CompletedArchives(t *testing.T) {
	ctx := context.Background()
	dbConn := openTestDB(t)
	ledger := NewLedger(dbConn, quietLogger())
	require.NotEmpty(t, ledger.RunID())

	d := 1500 * time.Millisecond
	ledger.Record(ctx, JobRecord{JobID: 1, Dir: "/m", Archive: "/m/movie.rar", Event: EventExtractStart})
	ledger.Record(ctx, JobRecord{JobID: 1, Dir: "/m", Archive: "/m/movie.rar", Event: EventExtractEnd, Duration: &d})
	ledger.Record(ctx, JobRecord{JobID: 2, Dir: "/s", Archive: "/s/show.rar", Event: EventExtractError, Message: "exit code 3"})

	completed, err := ledger.CompletedArchives(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"/m/movie.rar": true}, completed)
}

func TestDisplayJobHistory(t *testing.T) {
	ctx := context.Background()
	dbConn := openTestDB(t)
	ledger := NewLedger(dbConn, quietLogger())

	ledger.Record(ctx, JobRecord{JobID: 1, Dir: "/m", Archive: "/m/movie.rar", Event: EventExtractEnd})
	ledger.Record(ctx, JobRecord{JobID: 2, Dir: "/s", Archive: "/s/show.rar", Event: EventExtractError, Message: "exit code 3"})

	var out bytes.Buffer
	require.NoError(t, DisplayJobHistory(ctx, dbConn, &out, EventExtractError, 10))
	assert.Contains(t, out.String(), "s/show.rar (exit code 3)")
	assert.NotContains(t, out.String(), "movie.rar")
	assert.Contains(t, out.String(), "Displayed 1 records.")

	out.Reset()
	require.NoError(t, DisplayJobHistory(ctx, dbConn, &out, "", 10))
	assert.Contains(t, out.String(), "Displayed 2 records.")
}

func TestExportParquet(t *testing.T) {
	ctx := context.Background()
	dbConn := openTestDB(t)
	ledger := NewLedger(dbConn, quietLogger())

	d := 2 * time.Second
	ledger.Record(ctx, JobRecord{JobID: 1, Dir: "/m", Archive: "/m/movie.rar", Event: EventExtractEnd, Duration: &d})
	ledger.Record(ctx, JobRecord{JobID: 2, Dir: "/s", Event: EventVisited})

	path := filepath.Join(t.TempDir(), "out", "ledger.parquet")
	n, err := ExportParquet(ctx, dbConn, path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := ReadParquet(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, ledger.RunID(), rows[0].RunID)
	assert.Equal(t, EventExtractEnd, rows[0].Event)
	require.NotNil(t, rows[0].Archive)
	assert.Equal(t, "/m/movie.rar", *rows[0].Archive)
	require.NotNil(t, rows[0].DurationMs)
	assert.Equal(t, int64(2000), *rows[0].DurationMs)

	assert.Nil(t, rows[1].Archive)
	assert.Nil(t, rows[1].DurationMs)
	assert.Equal(t, int64(2), rows[1].JobID)
}
