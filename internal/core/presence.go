package core

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/vovakirdan/voicechat-server/internal/utils"
)

// DefaultMaxNameLength bounds display names when no limit is configured.
const DefaultMaxNameLength = 32

// UserLookup resolves users by id.
type UserLookup interface {
	LookupByID(userID string) (User, error)
}

// Registry owns the set of connected users and keeps display names unique
// under case folding. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byConn  map[string]*User
	byID    map[string]*User
	byName  map[string]string // folded name -> connection id
	order   []string          // connection ids in registration order
	maxName int
}

// NewRegistry creates an empty registry. maxName <= 0 selects DefaultMaxNameLength.
func NewRegistry(maxName int) *Registry {
	if maxName <= 0 {
		maxName = DefaultMaxNameLength
	}
	return &Registry{
		byConn:  make(map[string]*User),
		byID:    make(map[string]*User),
		byName:  make(map[string]string),
		maxName: maxName,
	}
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register creates a user for the connection.
func (r *Registry) Register(displayName, connectionID string) (User, error) {
	name := strings.TrimSpace(displayName)
	if name == "" || utf8.RuneCountInString(name) > r.maxName {
		return User{}, fmt.Errorf("register %q: %w", displayName, ErrInvalidName)
	}
	folded := foldName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConn[connectionID]; exists {
		return User{}, fmt.Errorf("register %q: %w", displayName, ErrAlreadyRegistered)
	}
	if _, taken := r.byName[folded]; taken {
		return User{}, fmt.Errorf("register %q: %w", displayName, ErrDuplicateName)
	}

	u := &User{
		ID:           utils.NewID(),
		Username:     name,
		ConnectionID: connectionID,
	}
	r.byConn[connectionID] = u
	r.byID[u.ID] = u
	r.byName[folded] = connectionID
	r.order = append(r.order, connectionID)
	return *u, nil
}

// LookupByConnection returns the user registered on the connection.
func (r *Registry) LookupByConnection(connectionID string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byConn[connectionID]
	if !ok {
		return User{}, fmt.Errorf("connection %s: %w", connectionID, ErrNotFound)
	}
	return *u, nil
}

// LookupByID returns the user with the given id.
func (r *Registry) LookupByID(userID string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[userID]
	if !ok {
		return User{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return *u, nil
}

// SetActiveChannel records the user's current text channel ("" clears it).
func (r *Registry) SetActiveChannel(userID, channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return false
	}
	u.ActiveChannel = channelID
	return true
}

// Remove deletes the connection's user. Removing an unknown connection is a no-op.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byConn[connectionID]
	if !ok {
		return
	}
	delete(r.byConn, connectionID)
	delete(r.byID, u.ID)
	delete(r.byName, foldName(u.Username))
	for i, id := range r.order {
		if id == connectionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// ListAll returns a snapshot of all users in registration order.
func (r *Registry) ListAll() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byConn[id])
	}
	return out
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
