package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// Relay computes who receives each voice signaling event. It keeps no state
// of its own; it only resolves user ids to connections through users.
type Relay struct {
	users UserLookup
	log   zerolog.Logger
}

// NewRelay builds a relay resolving peers through users.
func NewRelay(users UserLookup, logger *zerolog.Logger) *Relay {
	return &Relay{
		users: users,
		log:   componentLogger(logger, "relay"),
	}
}

// Joined introduces joiner and every prior participant to each other.
func (r *Relay) Joined(joiner User, prior []string) []Notification {
	notes := make([]Notification, 0, 2*len(prior))
	announce := &Event{Kind: EventVoiceUserJoined, Channel: joiner.ActiveChannel, UserID: joiner.ID}
	for _, peerID := range prior {
		if peerID == joiner.ID {
			continue
		}
		peer, err := r.users.LookupByID(peerID)
		if err != nil {
			r.log.Warn().Err(err).Str("user_id", peerID).Msg("voice peer vanished")
			continue
		}
		notes = append(notes,
			notify(peer.ConnectionID, announce),
			notify(joiner.ConnectionID, &Event{Kind: EventVoiceUserJoined, Channel: joiner.ActiveChannel, UserID: peer.ID}),
		)
	}
	return notes
}

// Left tells the remaining participants that leaver is gone.
func (r *Relay) Left(leaver User, channelID string, remaining []string) []Notification {
	ev := &Event{Kind: EventVoiceUserLeft, Channel: channelID, UserID: leaver.ID}
	return r.fanout(ev, leaver.ID, remaining)
}

// Route resolves the target of an offer, answer or ICE candidate. The
// returned notification goes to the target connection only.
func (r *Relay) Route(sender User, cmd Command) (Notification, error) {
	var kind EventKind
	switch cmd.Kind {
	case CommandVoiceOffer:
		kind = EventVoiceOffer
	case CommandVoiceAnswer:
		kind = EventVoiceAnswer
	case CommandVoiceICECandidate:
		kind = EventVoiceICECandidate
	default:
		return Notification{}, fmt.Errorf("route %s: %w", cmd.Kind, ErrMalformed)
	}
	if cmd.TargetID == "" || cmd.TargetID == sender.ID {
		return Notification{}, fmt.Errorf("route %s: bad target %q: %w", cmd.Kind, cmd.TargetID, ErrMalformed)
	}
	if err := validateSignal(cmd.Kind, cmd.Payload); err != nil {
		return Notification{}, fmt.Errorf("route %s: %w", cmd.Kind, err)
	}
	target, err := r.users.LookupByID(cmd.TargetID)
	if err != nil {
		return Notification{}, fmt.Errorf("route %s: %w", cmd.Kind, err)
	}
	return notify(target.ConnectionID, &Event{
		Kind:    kind,
		UserID:  sender.ID,
		Payload: cmd.Payload,
	}), nil
}

// Data relays an opaque audio chunk to every other participant.
func (r *Relay) Data(sender User, channelID string, cmd Command, participants []string) []Notification {
	ev := &Event{
		Kind:     EventVoiceData,
		Channel:  channelID,
		UserID:   sender.ID,
		Payload:  cmd.Payload,
		MimeType: cmd.MimeType,
	}
	return r.fanout(ev, sender.ID, participants)
}

// Retract tells both sides of an unanswered offer that it expired. Each side
// learns the id of the other.
func (r *Relay) Retract(p Pair) []Notification {
	var notes []Notification
	if from, err := r.users.LookupByID(p.From); err == nil {
		notes = append(notes, notify(from.ConnectionID, &Event{Kind: EventVoiceNegotiationTimeout, UserID: p.To}))
	}
	if to, err := r.users.LookupByID(p.To); err == nil {
		notes = append(notes, notify(to.ConnectionID, &Event{Kind: EventVoiceNegotiationTimeout, UserID: p.From}))
	}
	return notes
}

func (r *Relay) fanout(ev *Event, exclude string, ids []string) []Notification {
	notes := make([]Notification, 0, len(ids))
	for _, id := range ids {
		if id == exclude {
			continue
		}
		peer, err := r.users.LookupByID(id)
		if err != nil {
			r.log.Warn().Err(err).Str("user_id", id).Msg("voice peer vanished")
			continue
		}
		notes = append(notes, notify(peer.ConnectionID, ev))
	}
	return notes
}

// validateSignal checks that a payload has the shape a browser's
// RTCPeerConnection expects before it is forwarded.
func validateSignal(kind CommandKind, payload json.RawMessage) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("empty payload: %w", ErrMalformed)
	}

	switch kind {
	case CommandVoiceOffer, CommandVoiceAnswer:
		var desc webrtc.SessionDescription
		if err := json.Unmarshal(trimmed, &desc); err != nil {
			return fmt.Errorf("session description: %v: %w", err, ErrMalformed)
		}
		if kind == CommandVoiceOffer && desc.Type != webrtc.SDPTypeOffer {
			return fmt.Errorf("expected offer, got %s: %w", desc.Type, ErrMalformed)
		}
		if kind == CommandVoiceAnswer && desc.Type != webrtc.SDPTypeAnswer && desc.Type != webrtc.SDPTypePranswer {
			return fmt.Errorf("expected answer, got %s: %w", desc.Type, ErrMalformed)
		}
		var parsed sdp.SessionDescription
		if err := parsed.Unmarshal([]byte(desc.SDP)); err != nil {
			return fmt.Errorf("parse sdp: %v: %w", err, ErrMalformed)
		}
	case CommandVoiceICECandidate:
		var cand webrtc.ICECandidateInit
		if err := json.Unmarshal(trimmed, &cand); err != nil {
			return fmt.Errorf("ice candidate: %v: %w", err, ErrMalformed)
		}
	}
	return nil
}
