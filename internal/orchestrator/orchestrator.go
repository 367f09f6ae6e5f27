package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brensch/rarsweep/internal/config"
	"github.com/brensch/rarsweep/internal/db"
	"github.com/brensch/rarsweep/internal/output"
	"github.com/brensch/rarsweep/internal/rarset"
)

// Recorder persists job lifecycle rows. db.Ledger is the production
// implementation; a nil Recorder disables bookkeeping.
type Recorder interface {
	Record(ctx context.Context, rec db.JobRecord)
	CompletedArchives(ctx context.Context) (map[string]bool, error)
}

// Summary counts what a run did.
type Summary struct {
	Directories  int // directories visited
	Archives     int // directories holding a primary archive
	Extracted    int
	Failed       int
	Removed      int
	RemoveFailed int
	Skipped      int // already extracted in a previous run
}

type orchestrator struct {
	cfg       config.Config
	logger    *slog.Logger
	events    *output.Sender
	recorder  Recorder
	tool      rarset.Tool
	completed map[string]bool
	nextID    output.JobID
	summary   Summary
}

// Run walks cfg.Root depth first and extracts every archive set found, one at
// a time, reporting events to handler. Per-directory failures are logged and
// the walk continues; an error is only returned when the walk cannot start or
// ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler output.Handler, recorder Recorder) (Summary, error) {
	// Events and ledger rows carry absolute paths.
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return Summary{}, fmt.Errorf("cannot resolve root %s: %w", cfg.Root, err)
	}
	cfg.Root = root

	info, err := os.Stat(cfg.Root)
	if err != nil {
		return Summary{}, fmt.Errorf("cannot start traversal of %s: %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("cannot start traversal of %s: not a directory", cfg.Root)
	}

	events, worker := output.Start(handler, logger)
	defer func() {
		if r := recover(); r != nil {
			// No exit sentinel: the sink drains what was sent and stops.
			worker.Abort()
			if err := worker.Wait(); err != nil {
				logger.Warn("Output sink stopped with error.", "error", err)
			}
			panic(r)
		}
		events.Exit()
		if err := worker.Wait(); err != nil {
			logger.Warn("Output sink stopped with error.", "error", err)
		}
	}()

	o := &orchestrator{
		cfg:      cfg,
		logger:   logger,
		events:   events,
		recorder: recorder,
		tool:     rarset.NewTool(cfg.Tool),
	}
	if o.recorder == nil {
		o.recorder = noopRecorder{}
	}

	if cfg.SkipCompleted {
		completed, err := o.recorder.CompletedArchives(ctx)
		if err != nil {
			logger.Warn("Could not load completed archives, nothing will be skipped.", "error", err)
		}
		o.completed = completed
	}

	logger.Info("Starting traversal.", slog.String("root", cfg.Root), slog.Bool("remove", cfg.Remove))
	start := time.Now()

	walkErr := filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Error("Failed to walk entry, skipping.", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != cfg.Root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		o.visitDir(ctx, path)
		return nil
	})

	s := o.summary
	logger.Info("Traversal finished.",
		slog.Int("directories", s.Directories),
		slog.Int("archives", s.Archives),
		slog.Int("extracted", s.Extracted),
		slog.Int("failed", s.Failed),
		slog.Int("removed", s.Removed),
		slog.Int("remove_failed", s.RemoveFailed),
		slog.Int("skipped", s.Skipped),
		slog.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)

	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			logger.Warn("Traversal cancelled.", "error", walkErr)
		}
		return s, fmt.Errorf("traversal of %s stopped: %w", cfg.Root, walkErr)
	}
	return s, nil
}

func (o *orchestrator) visitDir(ctx context.Context, dir string) {
	o.nextID++
	id := o.nextID
	o.summary.Directories++

	set := rarset.Detect(o.logger, dir, o.cfg.PrimaryExt)
	if !set.HasPrimary() {
		if len(set.Volumes) > 0 {
			o.logger.Warn("Secondary volumes without a primary archive, skipping.",
				"dir", dir, slog.Int("volumes", len(set.Volumes)))
		}
		return
	}
	o.summary.Archives++

	l := o.logger.With(slog.Uint64("job", uint64(id)), slog.String("archive", set.Primary))
	rec := db.JobRecord{JobID: uint64(id), Dir: dir, Archive: set.Primary}
	record := func(event, message string, d *time.Duration) {
		r := rec
		r.Event, r.Message, r.Duration = event, message, d
		o.recorder.Record(ctx, r)
	}

	o.events.Send(output.Visited{Path: dir})
	record(db.EventVisited, "", nil)

	if o.completed[set.Primary] {
		l.Info("Archive already extracted in a previous run, skipping.")
		o.summary.Skipped++
		record(db.EventSkipCompleted, "", nil)
		return
	}

	job := rarset.NewJob(set, o.events, o.tool, o.logger)
	record(db.EventExtractStart, fmt.Sprintf("%d volume(s)", len(set.Volumes)), nil)
	start := time.Now()

	if err := job.Extract(ctx, id); err != nil {
		elapsed := time.Since(start)
		o.summary.Failed++
		l.Error("Extraction failed.", "error", err)
		record(db.EventExtractError, err.Error(), &elapsed)
		return
	}
	elapsed := time.Since(start)
	o.summary.Extracted++
	l.Debug("Extraction finished.", slog.Duration("duration", elapsed.Round(time.Millisecond)))
	record(db.EventExtractEnd, "", &elapsed)

	if !o.cfg.Remove {
		return
	}
	// Extraction already succeeded; a failed cleanup is only reported.
	if err := job.RemoveMembers(); err != nil {
		o.summary.RemoveFailed++
		l.Error("Failed to remove archive members.", "error", err)
		record(db.EventRemoveError, err.Error(), nil)
		return
	}
	o.summary.Removed++
	record(db.EventRemoveEnd, fmt.Sprintf("%d file(s)", len(set.Members())), nil)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, db.JobRecord) {}

func (noopRecorder) CompletedArchives(context.Context) (map[string]bool, error) {
	return nil, nil
}
