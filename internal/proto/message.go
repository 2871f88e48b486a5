package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeUserJoin          = "user_join"
	InboundTypeJoinChannel       = "join_channel"
	InboundTypeLeaveChannel      = "leave_channel"
	InboundTypeSendMessage       = "send_message"
	InboundTypeVoiceJoin         = "voice_join"
	InboundTypeVoiceLeave        = "voice_leave"
	InboundTypeVoiceOffer        = "voice_offer"
	InboundTypeVoiceAnswer       = "voice_answer"
	InboundTypeVoiceICECandidate = "voice_ice_candidate"
	InboundTypeVoiceData         = "voice_data"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Server -> client event names.
const (
	EventUserInfo                = "user_info"
	EventJoinError               = "join_error"
	EventUsersUpdate             = "users_update"
	EventUserJoined              = "user_joined"
	EventUserLeft                = "user_left"
	EventChannelMessages         = "channel_messages"
	EventReceiveMessage          = "receive_message"
	EventVoiceUserJoined         = "voice_user_joined"
	EventVoiceUserLeft           = "voice_user_left"
	EventVoiceOffer              = "voice_offer"
	EventVoiceAnswer             = "voice_answer"
	EventVoiceICECandidate       = "voice_ice_candidate"
	EventVoiceData               = "voice_data"
	EventVoiceNegotiationTimeout = "voice_negotiation_timeout"
)

// UserJoinData claims a display name.
type UserJoinData struct {
	Username string `json:"username"`
}

// ChannelData selects a channel. UserID, when present, must be the
// sender's own id.
type ChannelData struct {
	UserID    string `json:"userId,omitempty"`
	ChannelID string `json:"channelId"`
}

// SendMessageData posts a chat message.
type SendMessageData struct {
	Content   string `json:"content"`
	UserID    string `json:"userId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

// SignalData carries one of offer, answer or candidate for the peer UserID.
type SignalData struct {
	UserID    string          `json:"userId"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// VoiceData is an opaque audio chunk for the sender's voice room.
type VoiceData struct {
	Data     json.RawMessage `json:"data"`
	MimeType string          `json:"mimeType,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// User is the wire form of a connected user.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	ConnectionID  string `json:"connectionId"`
	ActiveChannel string `json:"activeChannel,omitempty"`
}

// Message is the wire form of a chat message. Timestamp is RFC 3339.
type Message struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	ChannelID string `json:"channelId"`
	Timestamp string `json:"timestamp"`
}

// JoinErrorData rejects a user_join.
type JoinErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// UserJoinedData notifies channel members about a new member.
type UserJoinedData struct {
	ChannelID string `json:"channelId"`
	User      User   `json:"user"`
}

// UserLeftData notifies channel members that a member left.
type UserLeftData struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}

// EventVoicePeer names a voice peer (voice_user_joined, voice_user_left,
// voice_negotiation_timeout).
type EventVoicePeer struct {
	UserID    string `json:"userId"`
	ChannelID string `json:"channelId,omitempty"`
}

// EventSignal is a forwarded offer, answer or candidate. UserID and
// FromUserID both hold the sender.
type EventSignal struct {
	UserID     string          `json:"userId"`
	FromUserID string          `json:"fromUserId"`
	Offer      json.RawMessage `json:"offer,omitempty"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	Candidate  json.RawMessage `json:"candidate,omitempty"`
}

// VoiceDataEvent is a relayed audio chunk.
type VoiceDataEvent struct {
	UserID   string          `json:"userId"`
	Data     json.RawMessage `json:"data"`
	MimeType string          `json:"mimeType,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
