package output

import (
	"io"
	"log/slog"

	"github.com/brensch/rarsweep/internal/config"
)

// NewHandler builds the sink selected by --output. Unknown types fall back
// to stdout; config validation rejects them earlier.
func NewHandler(t config.OutputType, stdout io.Writer, logger *slog.Logger) Handler {
	switch t {
	case config.OutputLog:
		return NewLogHandler(logger)
	case config.OutputFancy:
		return NewFancyHandler(logger)
	default:
		return NewStdoutHandler(stdout)
	}
}
