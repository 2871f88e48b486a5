package core

import "sync"

// VoiceRooms tracks voice participants per channel. Rooms appear on the
// first join and disappear when the last participant leaves. A user is in
// at most one room. It is safe for concurrent use.
type VoiceRooms struct {
	mu       sync.RWMutex
	rooms    map[string][]string // channel id -> participant ids in join order
	userRoom map[string]string
}

// NewVoiceRooms creates an empty tracker.
func NewVoiceRooms() *VoiceRooms {
	return &VoiceRooms{
		rooms:    make(map[string][]string),
		userRoom: make(map[string]string),
	}
}

// Join adds userID to the channel's room and returns the participants that
// were already there. A repeated join returns added=false. Joining a second
// room silently moves the user; callers wanting leave notifications must
// call Leave first.
func (v *VoiceRooms) Join(channelID, userID string) (prior []string, added bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if current, ok := v.userRoom[userID]; ok {
		if current == channelID {
			return without(v.rooms[channelID], userID), false
		}
		v.removeLocked(current, userID)
	}

	prior = append([]string(nil), v.rooms[channelID]...)
	v.rooms[channelID] = append(v.rooms[channelID], userID)
	v.userRoom[userID] = channelID
	return prior, true
}

// Leave removes userID from the channel's room and returns who remains.
func (v *VoiceRooms) Leave(channelID, userID string) (remaining []string, removed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.userRoom[userID] != channelID {
		return nil, false
	}
	v.removeLocked(channelID, userID)
	return append([]string(nil), v.rooms[channelID]...), true
}

func (v *VoiceRooms) removeLocked(channelID, userID string) {
	delete(v.userRoom, userID)
	left := without(v.rooms[channelID], userID)
	if len(left) == 0 {
		delete(v.rooms, channelID)
		return
	}
	v.rooms[channelID] = left
}

// MembersOf returns the participants of the channel's room.
func (v *VoiceRooms) MembersOf(channelID string) []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.rooms[channelID]...)
}

// RoomOf returns the channel whose room the user is in.
func (v *VoiceRooms) RoomOf(userID string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	channelID, ok := v.userRoom[userID]
	return channelID, ok
}

// Rooms returns the number of live rooms.
func (v *VoiceRooms) Rooms() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rooms)
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
