package rarset

import (
	"errors"
	"fmt"
)

var (
	ErrNoPrimary    = errors.New("archive set has no primary archive")
	ErrJobReused    = errors.New("extraction job already ran")
	ErrNotExtracted = errors.New("archive set was not extracted successfully")
	ErrConsumed     = errors.New("archive set members were already removed")
	ErrToolFailed   = errors.New("extraction tool failed")
)

// ErrorKind separates a tool that ran and reported failure from a tool we
// could not run or read.
type ErrorKind int

const (
	KindIO ErrorKind = iota
	KindToolFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindToolFailed:
		return "tool failed"
	default:
		return "io"
	}
}

// ExtractionError is returned by Job.Extract.
type ExtractionError struct {
	Kind     ErrorKind
	Op       string // start, read or wait
	Archive  string
	ExitCode int    // set for KindToolFailed
	Status   string // process state as printed by os/exec
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Kind == KindToolFailed {
		return fmt.Sprintf("extract %s: %s (exit code %d)", e.Archive, ErrToolFailed, e.ExitCode)
	}
	return fmt.Sprintf("extract %s: %s: %v", e.Archive, e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrToolFailed) true for non-zero exits.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrToolFailed && e.Kind == KindToolFailed
}
