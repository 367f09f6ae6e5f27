package output

import "sync"

// Channel is an unbounded FIFO pipe with many producers and one consumer.
// Sends never block, so a slow sink cannot stall an extraction.
type Channel struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []message
	closed bool
}

// NewChannel returns an empty channel.
func NewChannel() *Channel {
	c := &Channel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Sender returns a producer handle. Handles are cheap and may be shared.
func (c *Channel) Sender() *Sender {
	return &Sender{ch: c}
}

// Close marks the producer side as gone. A consumer that drains the queue
// after Close without having seen an exit sentinel knows shutdown was not clean.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *Channel) push(m message) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, m)
	c.mu.Unlock()
	c.cond.Signal()
	return true
}

// recv blocks until a message is queued. ok is false once the channel is
// closed and empty.
func (c *Channel) recv() (m message, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.queue) == 0 {
		return message{}, false
	}
	m = c.queue[0]
	c.queue[0] = message{}
	c.queue = c.queue[1:]
	return m, true
}

// Len reports the number of queued messages.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Sender is the producer handle held by jobs and the orchestrator.
type Sender struct {
	ch *Channel
}

// Send queues e. It reports false when the channel was already closed; the
// event stream is best effort, so callers usually ignore the result.
func (s *Sender) Send(e Event) bool {
	return s.ch.push(message{event: e})
}

// Exit queues the shutdown sentinel.
func (s *Sender) Exit() bool {
	return s.ch.push(message{exit: true})
}
