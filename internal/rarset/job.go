package rarset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/brensch/rarsweep/internal/output"
	"github.com/brensch/rarsweep/internal/util"
)

// State of an extraction job. Succeeded and Failed are final.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventSender is the producer side of the event channel.
type EventSender interface {
	Send(e output.Event) bool
}

// Tool describes the external extraction executable.
type Tool struct {
	Command string
	Args    []string  // placed before the archive path
	Stderr  io.Writer // nil discards the tool's stderr
}

// NewTool returns command configured to extract with full paths and to
// overwrite existing files without asking.
func NewTool(command string) Tool {
	return Tool{Command: command, Args: []string{"x", "-y"}}
}

// maxTokenSize bounds one progress token; unrar lines are far shorter.
const maxTokenSize = 1024 * 1024

// Job extracts one archive set. A job runs at most once.
type Job struct {
	set      ArchiveSet
	events   EventSender
	tool     Tool
	logger   *slog.Logger
	state    State
	consumed bool
}

func NewJob(set ArchiveSet, events EventSender, tool Tool, logger *slog.Logger) *Job {
	return &Job{
		set:    set,
		events: events,
		tool:   tool,
		logger: logger.With(slog.String("dir", set.Dir)),
	}
}

func (j *Job) HasPrimary() bool {
	return j.set.HasPrimary()
}

func (j *Job) State() State {
	return j.state
}

// Extract runs the tool on the primary archive, streaming its progress as
// events tagged with id. Completed is only sent when the tool exits with
// status zero.
func (j *Job) Extract(ctx context.Context, id output.JobID) error {
	if !j.HasPrimary() {
		return ErrNoPrimary
	}
	if j.state != Idle {
		return ErrJobReused
	}
	j.state = Running
	primary := j.set.Primary

	j.events.Send(output.Started{ID: id, Path: primary})

	// The tool runs in the archive's directory, so a relative path would
	// resolve against the wrong base.
	target, err := filepath.Abs(primary)
	if err != nil {
		return j.fail(&ExtractionError{Kind: KindIO, Op: "start", Archive: primary, Err: err})
	}
	args := append(append([]string{}, j.tool.Args...), target)
	cmd := exec.CommandContext(ctx, j.tool.Command, args...)
	cmd.Dir = filepath.Dir(target)
	if j.tool.Stderr != nil {
		cmd.Stderr = j.tool.Stderr
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return j.fail(&ExtractionError{Kind: KindIO, Op: "start", Archive: primary, Err: err})
	}
	if err := cmd.Start(); err != nil {
		return j.fail(&ExtractionError{Kind: KindIO, Op: "start", Archive: primary, Err: err})
	}
	j.logger.Debug("Extraction tool started.", "tool", j.tool.Command, "pid", cmd.Process.Pid)

	ps := util.NewProgressScanner(stdout)
	ps.Buffer(make([]byte, 0, 4096), maxTokenSize)
	for ps.Scan() {
		if percent, ok := ParseProgress(ps.Text()); ok {
			j.events.Send(output.Progress{ID: id, Percent: percent})
		}
	}
	readErr := ps.Err()
	if readErr != nil {
		// Keep the pipe drained so the tool cannot block on a full buffer.
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	switch {
	case ctx.Err() != nil:
		return j.fail(&ExtractionError{Kind: KindIO, Op: "wait", Archive: primary, Err: ctx.Err()})
	case waitErr != nil:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return j.fail(&ExtractionError{
				Kind:     KindToolFailed,
				Op:       "wait",
				Archive:  primary,
				ExitCode: exitErr.ExitCode(),
				Status:   exitErr.String(),
				Err:      exitErr,
			})
		}
		return j.fail(&ExtractionError{Kind: KindIO, Op: "wait", Archive: primary, Err: waitErr})
	case readErr != nil:
		return j.fail(&ExtractionError{Kind: KindIO, Op: "read", Archive: primary, Err: readErr})
	}

	j.state = Succeeded
	j.events.Send(output.Completed{ID: id})
	return nil
}

func (j *Job) fail(err *ExtractionError) error {
	j.state = Failed
	return err
}

// RemoveMembers deletes the primary archive and then every volume. It stops
// at the first failure; files already deleted stay deleted. The job holds no
// files afterwards, whatever the outcome.
func (j *Job) RemoveMembers() error {
	if j.consumed {
		return ErrConsumed
	}
	if j.state != Succeeded {
		return ErrNotExtracted
	}
	members := j.set.Members()
	j.consumed = true
	j.set = ArchiveSet{Dir: j.set.Dir}

	for _, path := range members {
		j.logger.Log(context.Background(), output.LevelTrace, "Removing archive member.", slog.String("path", path))
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}
