package core

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/voicechat-server/internal/utils"
)

// ChannelInfo is a read-only summary of a channel.
type ChannelInfo struct {
	ID          string
	Name        string
	MemberCount int
}

type channel struct {
	id       string
	name     string
	members  []string // user ids in join order
	messages []Message
}

func (c *channel) removeMember(userID string) bool {
	for i, id := range c.members {
		if id == userID {
			c.members = append(c.members[:i], c.members[i+1:]...)
			return true
		}
	}
	return false
}

// ChannelStore owns channels, their membership and their message logs.
// A user belongs to at most one channel. It is safe for concurrent use.
type ChannelStore struct {
	mu           sync.RWMutex
	channels     map[string]*channel
	order        []string
	memberOf     map[string]string // user id -> channel id
	users        UserLookup
	historyLimit int
	now          func() time.Time
}

// NewChannelStore creates an empty store. historyLimit > 0 caps each
// channel's log to the most recent messages.
func NewChannelStore(users UserLookup, historyLimit int) *ChannelStore {
	return &ChannelStore{
		channels:     make(map[string]*channel),
		memberOf:     make(map[string]string),
		users:        users,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Bootstrap creates one empty channel per name. The name doubles as the id.
func (s *ChannelStore) Bootstrap(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, exists := s.channels[name]; exists {
			continue
		}
		s.channels[name] = &channel{id: name, name: name}
		s.order = append(s.order, name)
	}
}

// Join moves the user into channelID, leaving any previous channel in the
// same critical section. changed is false when the user already was a member.
// Unknown users or channels leave the store untouched and return ErrNotFound.
func (s *ChannelStore) Join(userID, channelID string) (previous string, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.channels[channelID]
	if !ok {
		return "", false, fmt.Errorf("channel %q: %w", channelID, ErrNotFound)
	}
	if _, err := s.users.LookupByID(userID); err != nil {
		return "", false, err
	}

	previous = s.memberOf[userID]
	if previous == channelID {
		return previous, false, nil
	}
	if old, ok := s.channels[previous]; ok {
		old.removeMember(userID)
	}
	target.members = append(target.members, userID)
	s.memberOf[userID] = channelID
	return previous, true, nil
}

// Leave removes the user from channelID. It reports whether anything changed.
func (s *ChannelStore) Leave(userID, channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.memberOf[userID]; !ok || cur != channelID {
		return false
	}
	delete(s.memberOf, userID)
	if ch, ok := s.channels[channelID]; ok {
		ch.removeMember(userID)
	}
	return true
}

// RemoveUser drops the user from whatever channel it is in.
func (s *ChannelStore) RemoveUser(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	channelID, ok := s.memberOf[userID]
	if !ok {
		return "", false
	}
	delete(s.memberOf, userID)
	if ch, ok := s.channels[channelID]; ok {
		ch.removeMember(userID)
	}
	return channelID, true
}

// ChannelOf returns the channel the user is a member of.
func (s *ChannelStore) ChannelOf(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channelID, ok := s.memberOf[userID]
	return channelID, ok
}

// AppendMessage records a message authored by authorID in channelID.
func (s *ChannelStore) AppendMessage(content, authorID, channelID string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[channelID]
	if !ok {
		return Message{}, fmt.Errorf("append to channel %q: %w", channelID, ErrNotFound)
	}
	author, err := s.users.LookupByID(authorID)
	if err != nil {
		return Message{}, fmt.Errorf("append to channel %q: %w", channelID, err)
	}

	msg := Message{
		ID:         utils.NewID(),
		ChannelID:  channelID,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Content:    content,
		SentAt:     s.now(),
	}
	ch.messages = append(ch.messages, msg)
	if s.historyLimit > 0 && len(ch.messages) > s.historyLimit {
		ch.messages = append([]Message(nil), ch.messages[len(ch.messages)-s.historyLimit:]...)
	}
	return msg, nil
}

// History returns a copy of the channel's log, oldest first. Unknown
// channels yield an empty slice.
func (s *ChannelStore) History(channelID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[channelID]
	if !ok {
		return []Message{}
	}
	out := make([]Message, len(ch.messages))
	copy(out, ch.messages)
	return out
}

// MemberIDs returns the ids of the channel's members in join order.
func (s *ChannelStore) MemberIDs(channelID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[channelID]
	if !ok {
		return nil
	}
	out := make([]string, len(ch.members))
	copy(out, ch.members)
	return out
}

// Members resolves the channel's members to users.
func (s *ChannelStore) Members(channelID string) []User {
	ids := s.MemberIDs(channelID)
	out := make([]User, 0, len(ids))
	for _, id := range ids {
		u, err := s.users.LookupByID(id)
		if err != nil {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Channels lists the bootstrap channels in creation order.
func (s *ChannelStore) Channels() []ChannelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChannelInfo, 0, len(s.order))
	for _, id := range s.order {
		ch := s.channels[id]
		out = append(out, ChannelInfo{ID: ch.id, Name: ch.name, MemberCount: len(ch.members)})
	}
	return out
}

// Exists reports whether the channel is known.
func (s *ChannelStore) Exists(channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.channels[channelID]
	return ok
}
