package output

import (
	"fmt"
	"io"
)

// StdoutHandler prints one line per event.
type StdoutHandler struct {
	w       io.Writer
	working workingSet
}

func NewStdoutHandler(w io.Writer) *StdoutHandler {
	return &StdoutHandler{w: w, working: make(workingSet)}
}

func (h *StdoutHandler) Handle(e Event) {
	switch e := e.(type) {
	case Visited:
		fmt.Fprintf(h.w, "visiting %q\n", e.Path)
	case Started:
		h.working.start(e.ID, e.Path)
		fmt.Fprintf(h.w, "unraring %q\n", e.Path)
	case Progress:
		fmt.Fprintf(h.w, "progress: %d%%\n", e.Percent)
	case Completed:
		if path, ok := h.working.finish(e.ID); ok {
			fmt.Fprintf(h.w, "done with %q\n", path)
		} else {
			fmt.Fprintf(h.w, "done with unknown job %d\n", e.ID)
		}
	}
}

func (h *StdoutHandler) Close() error { return nil }
