package core

import (
	"sort"
	"sync"
	"time"
)

// Pair identifies an offer sent From one user To another.
type Pair struct {
	From string
	To   string
}

// Negotiations remembers offers that have not been answered yet so they can
// be retracted after a timeout. A zero timeout disables tracking.
type Negotiations struct {
	mu      sync.Mutex
	timeout time.Duration
	pending map[Pair]time.Time // deadline
}

// NewNegotiations creates a tracker with the given answer timeout.
func NewNegotiations(timeout time.Duration) *Negotiations {
	return &Negotiations{
		timeout: timeout,
		pending: make(map[Pair]time.Time),
	}
}

// Offered starts (or restarts) the answer deadline for from -> to.
func (n *Negotiations) Offered(from, to string, now time.Time) {
	if n.timeout <= 0 {
		return
	}
	n.mu.Lock()
	n.pending[Pair{From: from, To: to}] = now.Add(n.timeout)
	n.mu.Unlock()
}

// Answered clears the offer that answerer received from offerer.
func (n *Negotiations) Answered(answerer, offerer string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := Pair{From: offerer, To: answerer}
	if _, ok := n.pending[key]; !ok {
		return false
	}
	delete(n.pending, key)
	return true
}

// Forget drops every pending offer involving userID.
func (n *Negotiations) Forget(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	dropped := 0
	for key := range n.pending {
		if key.From == userID || key.To == userID {
			delete(n.pending, key)
			dropped++
		}
	}
	return dropped
}

// Expired removes and returns the offers whose deadline is not after now,
// oldest deadline first.
func (n *Negotiations) Expired(now time.Time) []Pair {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Pair
	for key, deadline := range n.pending {
		if !deadline.After(now) {
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return n.pending[out[i]].Before(n.pending[out[j]])
	})
	for _, key := range out {
		delete(n.pending, key)
	}
	return out
}

// Pending returns the number of unanswered offers.
func (n *Negotiations) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}
