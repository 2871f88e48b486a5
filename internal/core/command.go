package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandRegister claims a display name for the connection.
	CommandRegister CommandKind = iota
	// CommandJoinChannel makes a channel the user's active channel.
	CommandJoinChannel
	// CommandLeaveChannel drops the user's channel membership.
	CommandLeaveChannel
	// CommandSendMessage posts a chat message to the active channel.
	CommandSendMessage
	// CommandVoiceJoin enters the voice room of the active channel.
	CommandVoiceJoin
	// CommandVoiceLeave exits the current voice room.
	CommandVoiceLeave
	// CommandVoiceOffer forwards an SDP offer to one peer.
	CommandVoiceOffer
	// CommandVoiceAnswer forwards an SDP answer to one peer.
	CommandVoiceAnswer
	// CommandVoiceICECandidate forwards an ICE candidate to one peer.
	CommandVoiceICECandidate
	// CommandVoiceData relays an opaque audio chunk to the voice room.
	CommandVoiceData
)

var commandNames = [...]string{
	CommandRegister:          "user_join",
	CommandJoinChannel:       "join_channel",
	CommandLeaveChannel:      "leave_channel",
	CommandSendMessage:       "send_message",
	CommandVoiceJoin:         "voice_join",
	CommandVoiceLeave:        "voice_leave",
	CommandVoiceOffer:        "voice_offer",
	CommandVoiceAnswer:       "voice_answer",
	CommandVoiceICECandidate: "voice_ice_candidate",
	CommandVoiceData:         "voice_data",
}

func (k CommandKind) String() string {
	if k >= 0 && int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "unknown"
}

// Command represents an action requested by a client. UserID is the id the
// client claims to act as; when set it must match the connection's user.
type Command struct {
	Kind     CommandKind
	Username string
	UserID   string
	Channel  string
	Content  string
	TargetID string
	Payload  json.RawMessage
	MimeType string
}
