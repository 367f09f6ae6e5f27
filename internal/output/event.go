package output

import "fmt"

// JobID correlates the events of one extraction job across the channel.
type JobID uint64

// Event is one of Visited, Started, Progress or Completed.
type Event interface {
	isEvent()
}

// Visited reports a directory holding an archive set.
type Visited struct {
	Path string
}

// Started is sent before the extraction tool runs.
type Started struct {
	ID   JobID
	Path string // primary archive
}

// Progress carries the latest percentage printed by the tool.
type Progress struct {
	ID      JobID
	Percent uint8 // 0..100
}

// Completed is only sent when the tool exited successfully.
type Completed struct {
	ID JobID
}

func (Visited) isEvent()   {}
func (Started) isEvent()   {}
func (Progress) isEvent()  {}
func (Completed) isEvent() {}

func (v Visited) String() string   { return fmt.Sprintf("Visited %s", v.Path) }
func (s Started) String() string   { return fmt.Sprintf("Started %d %s", s.ID, s.Path) }
func (p Progress) String() string  { return fmt.Sprintf("Progress %d: %d%%", p.ID, p.Percent) }
func (c Completed) String() string { return fmt.Sprintf("Completed %d", c.ID) }

// message is what travels over the channel: an event or the exit sentinel.
type message struct {
	event Event
	exit  bool
}
