package output

import (
	"fmt"
	"log/slog"
)

// Handler consumes events on the sink worker goroutine. Close runs once,
// after the last event, however the worker stops.
type Handler interface {
	Handle(e Event)
	Close() error
}

// Worker drains a Channel into a Handler on its own goroutine.
type Worker struct {
	ch      *Channel
	handler Handler
	logger  *slog.Logger
	done    chan struct{}
	err     error
}

// Start launches the sink worker for handler and returns the producer handle
// plus the worker to join on shutdown.
func Start(handler Handler, logger *slog.Logger) (*Sender, *Worker) {
	ch := NewChannel()
	w := &Worker{
		ch:      ch,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go w.run()
	return ch.Sender(), w
}

func (w *Worker) run() {
	defer close(w.done)
	defer func() {
		if err := w.handler.Close(); err != nil {
			w.logger.Error("Output handler failed to close cleanly.", "error", err)
			w.err = err
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Output handler panicked, stopping sink.", "panic", fmt.Sprint(r))
			w.err = fmt.Errorf("output handler panicked: %v", r)
		}
	}()

	for {
		m, ok := w.ch.recv()
		if !ok {
			w.logger.Warn("Event channel closed without exit.")
			return
		}
		if m.exit {
			w.logger.Debug("Sink received exit.", slog.Int("dropped", w.ch.Len()))
			return
		}
		w.handler.Handle(m.event)
	}
}

// Wait blocks until the worker has stopped and the handler is closed. It
// returns the handler's close error, or the panic that stopped it.
func (w *Worker) Wait() error {
	<-w.done
	return w.err
}

// Abort closes the channel without an exit sentinel. Used when the producer
// side fails before it can shut down normally.
func (w *Worker) Abort() {
	w.ch.Close()
}

// workingSet maps in-flight job ids back to their primary archive, since
// Completed does not repeat the path.
type workingSet map[JobID]string

func (ws workingSet) start(id JobID, path string) {
	ws[id] = path
}

func (ws workingSet) finish(id JobID) (string, bool) {
	path, ok := ws[id]
	delete(ws, id)
	return path, ok
}
