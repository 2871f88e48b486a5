package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventUserInfo confirms a successful registration to the registrant.
	EventUserInfo EventKind = iota
	// EventJoinError reports a failed registration to the registrant.
	EventJoinError
	// EventUsersUpdate carries the full list of connected users.
	EventUsersUpdate
	// EventUserJoined notifies channel members about a new member.
	EventUserJoined
	// EventUserLeft notifies channel members that a member left.
	EventUserLeft
	// EventChannelMessages delivers a channel's history to a joining user.
	EventChannelMessages
	// EventReceiveMessage delivers a new chat message to channel members.
	EventReceiveMessage
	// EventVoiceUserJoined announces a voice peer to negotiate with.
	EventVoiceUserJoined
	// EventVoiceUserLeft announces that a voice peer is gone.
	EventVoiceUserLeft
	// EventVoiceOffer carries a forwarded SDP offer.
	EventVoiceOffer
	// EventVoiceAnswer carries a forwarded SDP answer.
	EventVoiceAnswer
	// EventVoiceICECandidate carries a forwarded ICE candidate.
	EventVoiceICECandidate
	// EventVoiceData carries a relayed audio chunk.
	EventVoiceData
	// EventVoiceNegotiationTimeout retracts an offer that was never answered.
	EventVoiceNegotiationTimeout
)

// Event is sent to clients to describe what happened in the system.
// Events are shared between recipients and must not be mutated.
type Event struct {
	Kind     EventKind
	Channel  string
	User     User      // EventUserInfo, EventUserJoined
	UserID   string    // subject of user_left and voice events
	Users    []User    // EventUsersUpdate
	Message  Message   // EventReceiveMessage
	Messages []Message // EventChannelMessages
	Payload  json.RawMessage
	MimeType string
	Error    *CoreError // EventJoinError
}

// Notification addresses an event to one connection.
type Notification struct {
	ConnID string
	Event  *Event
}

func notify(connID string, ev *Event) Notification {
	return Notification{ConnID: connID, Event: ev}
}
