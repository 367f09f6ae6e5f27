package output

import (
	"errors"
	"log/slog"

	"github.com/brensch/rarsweep/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

// FancyHandler drives the interactive job display. When the display cannot
// run (no terminal, user closed it, renderer error) events fall back to the
// structured log instead of stopping the run.
type FancyHandler struct {
	logger   *slog.Logger
	program  *tea.Program
	done     chan struct{}
	runErr   error
	final    *app.AppModel
	fallback *LogHandler
	degraded bool
}

// NewFancyHandler starts the display program. Options are passed to
// tea.NewProgram and exist mainly so tests can run without a terminal.
func NewFancyHandler(logger *slog.Logger, opts ...tea.ProgramOption) *FancyHandler {
	h := &FancyHandler{
		logger:   logger,
		program:  tea.NewProgram(app.NewAppModel(), opts...),
		done:     make(chan struct{}),
		fallback: NewLogHandler(logger),
	}
	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.runErr = errors.New("display panicked")
			}
		}()
		model, err := h.program.Run()
		h.runErr = err
		if m, ok := model.(*app.AppModel); ok {
			h.final = m
		}
	}()
	return h
}

func (h *FancyHandler) running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *FancyHandler) Handle(e Event) {
	if h.running() {
		h.send(e)
		// Send drops the message when the program stops concurrently, so
		// only a display still running afterwards is known to have it.
		if h.running() {
			h.track(e)
			return
		}
	}
	h.degrade()
	h.fallback.Handle(e)
}

func (h *FancyHandler) send(e Event) {
	switch e := e.(type) {
	case Visited:
		h.program.Send(app.NewVisit(e.Path))
	case Started:
		h.program.Send(app.NewJobStarted(uint64(e.ID), e.Path))
	case Progress:
		h.program.Send(app.NewJobProgress(uint64(e.ID), int(e.Percent)))
	case Completed:
		h.program.Send(app.NewJobDone(uint64(e.ID)))
	}
}

// track keeps the fallback's working set current while the display is up,
// so a job started on screen still resolves after a fallback.
func (h *FancyHandler) track(e Event) {
	switch e := e.(type) {
	case Started:
		h.fallback.working.start(e.ID, e.Path)
	case Completed:
		h.fallback.working.finish(e.ID)
	}
}

func (h *FancyHandler) degrade() {
	if h.degraded {
		return
	}
	h.degraded = true
	if h.runErr != nil {
		h.logger.Error("Interactive display failed, falling back to log output.", "error", h.runErr)
	} else {
		h.logger.Warn("Interactive display closed, falling back to log output.")
	}
}

// Close stops the display and waits for the terminal to be restored.
func (h *FancyHandler) Close() error {
	if h.running() {
		h.program.Send(app.ShutdownMsg{})
	}
	<-h.done
	if h.runErr != nil && !h.degraded {
		h.logger.Error("Interactive display exited with error.", "error", h.runErr)
	}
	return nil
}

// Model returns the display model once the program has stopped.
func (h *FancyHandler) Model() *app.AppModel {
	<-h.done
	return h.final
}
