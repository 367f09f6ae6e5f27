package orchestrator

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/rarsweep/internal/config"
	"github.com/brensch/rarsweep/internal/db"
	"github.com/brensch/rarsweep/internal/output"
)

// fakeUnrar fails for archives whose name contains "bad" and otherwise drops
// a marker file next to the archive.
const fakeUnrar = `#!/bin/sh
for a in "$@"; do last="$a"; done
[ -f "$last" ] || exit 10
printf 'Extracting from %s\n' "$last"
printf ' 50%%\b\b\b\b'
case "$last" in
  *bad*) echo "CRC failed"; exit 2 ;;
esac
touch extracted.txt
printf '100%%\nAll OK\n'
`

type collectingHandler struct {
	mu     sync.Mutex
	events []output.Event
	closed bool
}

func (h *collectingHandler) Handle(e output.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *collectingHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

type memRecorder struct {
	records   []db.JobRecord
	completed map[string]bool
}

func (r *memRecorder) Record(_ context.Context, rec db.JobRecord) {
	r.records = append(r.records, rec)
}

func (r *memRecorder) CompletedArchives(context.Context) (map[string]bool, error) {
	return r.completed, nil
}

func (r *memRecorder) events() []string {
	var out []string
	for _, rec := range r.records {
		out = append(out, rec.Event)
	}
	return out
}

func setup(t *testing.T) (config.Config, *bytes.Buffer) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake extraction tool is a shell script")
	}
	tool := filepath.Join(t.TempDir(), "fake-unrar")
	require.NoError(t, os.WriteFile(tool, []byte(fakeUnrar), 0o755))

	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Tool = tool
	return cfg, &bytes.Buffer{}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
}

func logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRun_ExtractsAndRemoves(t *testing.T) {
	cfg, logs := setup(t)
	cfg.Remove = true
	movie := filepath.Join(cfg.Root, "movie")
	touch(t, movie, "movie.rar", "movie.r00")

	h := &collectingHandler{}
	rec := &memRecorder{}
	summary, err := Run(context.Background(), cfg, logger(logs), h, rec)
	require.NoError(t, err)

	primary := filepath.Join(movie, "movie.rar")
	assert.True(t, h.closed, "sink joined before Run returns")
	require.GreaterOrEqual(t, len(h.events), 3)
	assert.Equal(t, output.Visited{Path: movie}, h.events[0])
	started, ok := h.events[1].(output.Started)
	require.True(t, ok)
	assert.Equal(t, primary, started.Path)
	assert.Equal(t, output.Completed{ID: started.ID}, h.events[len(h.events)-1])
	for _, e := range h.events[2 : len(h.events)-1] {
		p, ok := e.(output.Progress)
		require.True(t, ok, "only progress between start and completion, got %v", e)
		assert.Equal(t, started.ID, p.ID)
		assert.LessOrEqual(t, p.Percent, uint8(100))
	}

	assert.NoFileExists(t, primary)
	assert.NoFileExists(t, filepath.Join(movie, "movie.r00"))
	assert.FileExists(t, filepath.Join(movie, "extracted.txt"))

	assert.Equal(t, Summary{Directories: 2, Archives: 1, Extracted: 1, Removed: 1}, summary)
	assert.Equal(t, []string{db.EventVisited, db.EventExtractStart, db.EventExtractEnd, db.EventRemoveEnd}, rec.events())
}

func TestRun_FailureDoesNotStopWalk(t *testing.T) {
	cfg, logs := setup(t)
	cfg.Remove = true
	bad := filepath.Join(cfg.Root, "a")
	good := filepath.Join(cfg.Root, "b")
	touch(t, bad, "bad.rar", "bad.r00")
	touch(t, good, "good.rar")

	h := &collectingHandler{}
	summary, err := Run(context.Background(), cfg, logger(logs), h, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Extracted)
	assert.Equal(t, 1, summary.Removed)

	// The failed set is untouched and never reported as completed.
	assert.FileExists(t, filepath.Join(bad, "bad.rar"))
	assert.FileExists(t, filepath.Join(bad, "bad.r00"))
	assert.NoFileExists(t, filepath.Join(good, "good.rar"))

	var badID output.JobID
	completed := map[output.JobID]bool{}
	for _, e := range h.events {
		switch e := e.(type) {
		case output.Started:
			if e.Path == filepath.Join(bad, "bad.rar") {
				badID = e.ID
			}
		case output.Completed:
			completed[e.ID] = true
		}
	}
	require.NotZero(t, badID)
	assert.False(t, completed[badID])
	assert.Len(t, completed, 1)
	assert.Contains(t, logs.String(), "Extraction failed.")
}

func TestRun_SkipsHiddenAndPrimaryLessDirectories(t *testing.T) {
	cfg, logs := setup(t)
	touch(t, filepath.Join(cfg.Root, ".hidden", "inner"), "secret.rar")
	touch(t, filepath.Join(cfg.Root, "parts"), "x.r00", "x.r01")
	touch(t, cfg.Root, "loose.txt")

	h := &collectingHandler{}
	summary, err := Run(context.Background(), cfg, logger(logs), h, nil)
	require.NoError(t, err)

	assert.Empty(t, h.events)
	assert.Equal(t, Summary{Directories: 2}, summary)
	assert.FileExists(t, filepath.Join(cfg.Root, ".hidden", "inner", "secret.rar"))
	assert.NoFileExists(t, filepath.Join(cfg.Root, ".hidden", "inner", "extracted.txt"))
	assert.Contains(t, logs.String(), "Secondary volumes without a primary archive")
}

func TestRun_KeepsMembersWithoutRemove(t *testing.T) {
	cfg, logs := setup(t)
	touch(t, cfg.Root, "root.rar")

	summary, err := Run(context.Background(), cfg, logger(logs), &collectingHandler{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Extracted)
	assert.Zero(t, summary.Removed)
	assert.FileExists(t, filepath.Join(cfg.Root, "root.rar"))
}

func TestRun_SkipCompleted(t *testing.T) {
	cfg, logs := setup(t)
	cfg.SkipCompleted = true
	dir := filepath.Join(cfg.Root, "done")
	touch(t, dir, "done.rar")

	h := &collectingHandler{}
	rec := &memRecorder{completed: map[string]bool{filepath.Join(dir, "done.rar"): true}}
	summary, err := Run(context.Background(), cfg, logger(logs), h, rec)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Extracted)
	assert.Equal(t, []output.Event{output.Visited{Path: dir}}, h.events)
	assert.Equal(t, []string{db.EventVisited, db.EventSkipCompleted}, rec.events())
	assert.NoFileExists(t, filepath.Join(dir, "extracted.txt"))
}

func TestRun_MissingRoot(t *testing.T) {
	cfg, logs := setup(t)
	cfg.Root = filepath.Join(cfg.Root, "missing")

	h := &collectingHandler{}
	_, err := Run(context.Background(), cfg, logger(logs), h, nil)
	require.Error(t, err)
	assert.False(t, h.closed, "sink never started")
}

func TestRun_JobIDsAreUnique(t *testing.T) {
	cfg, logs := setup(t)
	for _, name := range []string{"a", "b", "c"} {
		touch(t, filepath.Join(cfg.Root, name), name+".rar")
	}

	h := &collectingHandler{}
	_, err := Run(context.Background(), cfg, logger(logs), h, nil)
	require.NoError(t, err)

	seen := map[output.JobID]bool{}
	var last output.JobID
	for _, e := range h.events {
		if s, ok := e.(output.Started); ok {
			assert.False(t, seen[s.ID])
			assert.Greater(t, s.ID, last)
			seen[s.ID] = true
			last = s.ID
		}
	}
	assert.Len(t, seen, 3)
}

func TestRun_RelativeRoot(t *testing.T) {
	cfg, logs := setup(t)
	base := t.TempDir()
	touch(t, filepath.Join(base, "tree", "movie"), "movie.rar", "movie.r00")
	t.Chdir(base)
	cfg.Root = "tree"
	cfg.Remove = true

	h := &collectingHandler{}
	summary, err := Run(context.Background(), cfg, logger(logs), h, nil)
	require.NoError(t, err)

	assert.Equal(t, Summary{Directories: 2, Archives: 1, Extracted: 1, Removed: 1}, summary, logs.String())
	movie := filepath.Join(base, "tree", "movie")
	assert.FileExists(t, filepath.Join(movie, "extracted.txt"))
	assert.NoFileExists(t, filepath.Join(movie, "movie.rar"))
	require.NotEmpty(t, h.events)
	visited, ok := h.events[0].(output.Visited)
	require.True(t, ok)
	assert.True(t, filepath.IsAbs(visited.Path))
}

// panicRecorder fails the run from inside the walk.
type panicRecorder struct{ memRecorder }

func (r *panicRecorder) Record(_ context.Context, rec db.JobRecord) {
	if rec.Event == db.EventExtractStart {
		panic("ledger exploded")
	}
}

func TestRun_PanicStillJoinsSink(t *testing.T) {
	cfg, logs := setup(t)
	touch(t, filepath.Join(cfg.Root, "movie"), "movie.rar")

	h := &collectingHandler{}
	assert.PanicsWithValue(t, "ledger exploded", func() {
		_, _ = Run(context.Background(), cfg, logger(logs), h, &panicRecorder{})
	})
	assert.True(t, h.closed)
	assert.Contains(t, logs.String(), "Event channel closed without exit.")
	assert.Equal(t, []output.Event{output.Visited{Path: filepath.Join(cfg.Root, "movie")}}, h.events)
}
