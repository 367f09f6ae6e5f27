package output

import (
	"context"
	"log/slog"
)

// LevelTrace sits below Debug; slog has no trace level of its own.
const LevelTrace = slog.Level(-8)

// LogHandler routes events through the structured logger.
type LogHandler struct {
	logger  *slog.Logger
	working workingSet
}

func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger, working: make(workingSet)}
}

func (h *LogHandler) Handle(e Event) {
	switch e := e.(type) {
	case Visited:
		h.logger.Log(context.Background(), LevelTrace, "Visiting directory.", slog.String("path", e.Path))
	case Started:
		h.working.start(e.ID, e.Path)
		h.logger.Info("Unraring.", slog.Uint64("job", uint64(e.ID)), slog.String("archive", e.Path))
	case Progress:
		h.logger.Info("Progress.", slog.Uint64("job", uint64(e.ID)), slog.Int("percent", int(e.Percent)))
	case Completed:
		if path, ok := h.working.finish(e.ID); ok {
			h.logger.Info("Done.", slog.Uint64("job", uint64(e.ID)), slog.String("archive", path))
		} else {
			h.logger.Warn("Completion for unknown job.", slog.Uint64("job", uint64(e.ID)))
		}
	}
}

func (h *LogHandler) Close() error { return nil }
