package core

import "sync"

// DefaultClientBuffer is the number of events queued for a client before it
// is considered too slow and dropped.
const DefaultClientBuffer = 64

// Client is one connection as seen by the hub. The transport feeds Commands
// and drains Events; ID doubles as the connection id.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	done     chan struct{}
	dropOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// Done is closed once the hub stops serving the client, either because it
// was unregistered, fell behind or the hub shut down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) drop() {
	c.dropOnce.Do(func() { close(c.done) })
}
