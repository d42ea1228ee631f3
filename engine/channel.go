package engine

import "sync"

// MessageChannel is the FIFO delivery path from background workers to the
// foreground dispatcher. Any number of producers may publish; the single
// consumer drains without blocking. Messages from one producer are delivered
// in the order produced; no ordering holds across producers.
type MessageChannel struct {
	mu    sync.Mutex
	queue []Message
}

func NewMessageChannel() *MessageChannel {
	return &MessageChannel{}
}

func (c *MessageChannel) Publish(message Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, message)
}

// Drain returns every currently queued message in FIFO order and empties the
// queue. It never blocks.
func (c *MessageChannel) Drain() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return nil
	}
	drained := c.queue
	c.queue = nil
	return drained
}

func (c *MessageChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
