package scanfeed

import "sync"

// Client represents one connected feed subscriber.
//
// Send is intentionally never closed by the hub; done signals shutdown so
// concurrent broadcasters cannot panic on a closed channel. Close is
// idempotent.
type Client struct {
	Name string
	Send chan any

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a Client with a bounded send queue.
func NewClient(name string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Client{
		Name: name,
		Send: make(chan any, queueSize),
		done: make(chan struct{}),
	}
}

// Done returns a channel closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} {
	if c == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// Close signals the client goroutines to stop (idempotent).
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
