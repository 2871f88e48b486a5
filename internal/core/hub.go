package core

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often the hub looks for expired voice offers.
const DefaultSweepInterval = time.Second

type envelope struct {
	client *Client
	cmd    *Command
}

// HubOption tunes a Hub.
type HubOption func(*Hub)

// WithSweepInterval sets how often expired negotiations are collected.
// Zero disables the sweep.
func WithSweepInterval(d time.Duration) HubOption {
	return func(h *Hub) { h.sweep = d }
}

// WithHubClock overrides the time source used for sweeps.
func WithHubClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// Hub owns the connected clients and runs the single loop that applies
// commands to the Coordinator and delivers the resulting events. Every
// notification is enqueued from that loop, so all recipients observe events
// in the same order.
type Hub struct {
	coord *Coordinator

	register   chan *Client
	unregister chan *Client
	inbox      chan envelope
	stopped    chan struct{}

	clients map[string]*Client

	sweep time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewHub creates a hub dispatching to coord.
func NewHub(coord *Coordinator, logger *zerolog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		coord:      coord,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan envelope, 256),
		stopped:    make(chan struct{}),
		clients:    make(map[string]*Client),
		sweep:      DefaultSweepInterval,
		now:        time.Now,
		log:        componentLogger(logger, "hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterClient hands a new connection to the hub. It returns false when
// the hub is no longer running.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		c.drop()
		return false
	}
}

// UnregisterClient removes the connection and releases everything it owned.
// Calling it more than once is harmless.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Run processes hub events until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	var tick <-chan time.Time
	if h.sweep > 0 {
		ticker := time.NewTicker(h.sweep)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c.ID, "unregistered")
		case env := <-h.inbox:
			if _, ok := h.clients[env.client.ID]; !ok {
				continue
			}
			h.dispatch(h.coord.Handle(env.client.ID, *env.cmd))
		case <-tick:
			h.dispatch(h.coord.Expire(h.now()))
		}
	}
}

func (h *Hub) add(c *Client) {
	if _, exists := h.clients[c.ID]; exists {
		h.log.Warn().Str("conn_id", c.ID).Msg("duplicate connection id rejected")
		c.drop()
		return
	}
	h.clients[c.ID] = c
	h.coord.Connect(c.ID)
	go h.pump(c)
	h.log.Debug().Str("conn_id", c.ID).Int("clients", len(h.clients)).Msg("client connected")
}

// pump moves a client's commands into the shared inbox.
func (h *Hub) pump(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.inbox <- envelope{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-h.stopped:
				return
			}
		case <-c.done:
			return
		case <-h.stopped:
			return
		}
	}
}

func (h *Hub) remove(connID, reason string) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	c.drop()
	h.log.Debug().Str("conn_id", connID).Str("reason", reason).Int("clients", len(h.clients)).Msg("client removed")
	h.dispatch(h.coord.Disconnect(connID))
}

// dispatch enqueues notifications without blocking. A client whose buffer is
// full is removed after the batch has been delivered to everyone else.
func (h *Hub) dispatch(notes []Notification) {
	var slow []string
	for _, n := range notes {
		c, ok := h.clients[n.ConnID]
		if !ok {
			continue
		}
		select {
		case c.Events <- n.Event:
		default:
			if !slices.Contains(slow, n.ConnID) {
				slow = append(slow, n.ConnID)
			}
		}
	}
	for _, connID := range slow {
		h.log.Warn().Str("conn_id", connID).Msg("client too slow, dropping")
		h.remove(connID, "slow consumer")
	}
}

func (h *Hub) shutdown() {
	close(h.stopped)
	for id, c := range h.clients {
		delete(h.clients, id)
		c.drop()
		h.coord.Disconnect(id)
	}
	h.log.Info().Msg("hub stopped")
}
