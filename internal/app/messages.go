package app

import (
	"fmt"
	"time"
)

// VisitMsg reports a directory holding an archive set.
type VisitMsg struct {
	Path string
}

// JobStartedMsg opens a row in the job table.
type JobStartedMsg struct {
	JobID uint64
	Path  string
	At    time.Time
}

// JobProgressMsg updates the bar of a running job.
type JobProgressMsg struct {
	JobID   uint64
	Percent int // 0..100
}

// JobDoneMsg marks a job as complete.
type JobDoneMsg struct {
	JobID uint64
	At    time.Time
}

// ShutdownMsg tells the display that no more events will arrive.
type ShutdownMsg struct{}

func NewVisit(path string) VisitMsg {
	return VisitMsg{Path: path}
}

func NewJobStarted(id uint64, path string) JobStartedMsg {
	return JobStartedMsg{JobID: id, Path: path, At: time.Now()}
}

func NewJobProgress(id uint64, percent int) JobProgressMsg {
	return JobProgressMsg{JobID: id, Percent: percent}
}

func NewJobDone(id uint64) JobDoneMsg {
	return JobDoneMsg{JobID: id, At: time.Now()}
}

func (v VisitMsg) String() string      { return fmt.Sprintf("Visit %s", v.Path) }
func (s JobStartedMsg) String() string { return fmt.Sprintf("JobStarted %d: %s", s.JobID, s.Path) }
func (p JobProgressMsg) String() string {
	return fmt.Sprintf("JobProgress %d: %d%%", p.JobID, p.Percent)
}
func (d JobDoneMsg) String() string { return fmt.Sprintf("JobDone %d", d.JobID) }
