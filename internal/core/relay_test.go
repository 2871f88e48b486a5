package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func newTestRelay(t *testing.T, names ...string) (*Relay, []User) {
	t.Helper()
	r := NewRegistry(0)
	users := make([]User, 0, len(names))
	for _, name := range names {
		u, err := r.Register(name, "conn-"+name)
		if err != nil {
			t.Fatal(err)
		}
		r.SetActiveChannel(u.ID, "genel")
		u.ActiveChannel = "genel"
		users = append(users, u)
	}
	return NewRelay(r, nil), users
}

func TestRelayJoinedIsBidirectional(t *testing.T) {
	relay, users := newTestRelay(t, "alice", "bob", "carol")
	alice, bob, carol := users[0], users[1], users[2]

	notes := relay.Joined(carol, []string{alice.ID, bob.ID})
	if len(notes) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(notes))
	}
	if ev := only(t, notes, alice.ConnectionID, EventVoiceUserJoined); ev.UserID != carol.ID {
		t.Fatalf("alice should learn about carol: %+v", ev)
	}
	if ev := only(t, notes, bob.ConnectionID, EventVoiceUserJoined); ev.UserID != carol.ID {
		t.Fatalf("bob should learn about carol: %+v", ev)
	}
	peers := eventsFor(notes, carol.ConnectionID, EventVoiceUserJoined)
	if len(peers) != 2 || peers[0].UserID != alice.ID || peers[1].UserID != bob.ID {
		t.Fatalf("carol should learn about alice and bob: %+v", peers)
	}
}

func TestRelayRouteTargetsOnePeer(t *testing.T) {
	relay, users := newTestRelay(t, "alice", "bob", "carol")
	alice, bob := users[0], users[1]

	offer := sdpPayload(t, "offer")
	note, err := relay.Route(alice, Command{Kind: CommandVoiceOffer, TargetID: bob.ID, Payload: offer})
	if err != nil {
		t.Fatalf("route offer: %v", err)
	}
	if note.ConnID != bob.ConnectionID || note.Event.Kind != EventVoiceOffer || note.Event.UserID != alice.ID {
		t.Fatalf("unexpected notification: %+v %+v", note, note.Event)
	}
	if string(note.Event.Payload) != string(offer) {
		t.Fatal("payload must be forwarded untouched")
	}

	cand := json.RawMessage(`{"candidate":"candidate:1 1 UDP 2122252543 192.168.1.2 50000 typ host","sdpMid":"0","sdpMLineIndex":0}`)
	note, err = relay.Route(bob, Command{Kind: CommandVoiceICECandidate, TargetID: alice.ID, Payload: cand})
	if err != nil || note.ConnID != alice.ConnectionID || note.Event.UserID != bob.ID {
		t.Fatalf("route candidate: %+v %v", note, err)
	}
}

func TestRelayRouteRejects(t *testing.T) {
	relay, users := newTestRelay(t, "alice", "bob")
	alice, bob := users[0], users[1]

	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"unknown target", Command{Kind: CommandVoiceOffer, TargetID: "ghost", Payload: sdpPayload(t, "offer")}, ErrNotFound},
		{"self target", Command{Kind: CommandVoiceOffer, TargetID: alice.ID, Payload: sdpPayload(t, "offer")}, ErrMalformed},
		{"missing target", Command{Kind: CommandVoiceAnswer, Payload: sdpPayload(t, "answer")}, ErrMalformed},
		{"answer sent as offer", Command{Kind: CommandVoiceOffer, TargetID: bob.ID, Payload: sdpPayload(t, "answer")}, ErrMalformed},
		{"broken sdp", Command{Kind: CommandVoiceAnswer, TargetID: bob.ID, Payload: json.RawMessage(`{"type":"answer","sdp":"garbage"}`)}, ErrMalformed},
		{"null candidate", Command{Kind: CommandVoiceICECandidate, TargetID: bob.ID, Payload: json.RawMessage(`null`)}, ErrMalformed},
		{"not a signal", Command{Kind: CommandVoiceData, TargetID: bob.ID}, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := relay.Route(alice, tt.cmd); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRelayLeftAndData(t *testing.T) {
	relay, users := newTestRelay(t, "alice", "bob", "carol")
	alice, bob, carol := users[0], users[1], users[2]

	notes := relay.Left(alice, "genel", []string{bob.ID, carol.ID})
	if len(notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notes))
	}
	for _, n := range notes {
		if n.Event.Kind != EventVoiceUserLeft || n.Event.UserID != alice.ID || n.ConnID == alice.ConnectionID {
			t.Fatalf("unexpected notification: %+v", n.Event)
		}
	}

	data := relay.Data(bob, "genel", Command{Kind: CommandVoiceData, Payload: json.RawMessage(`"AAEC"`), MimeType: "audio/webm"}, []string{alice.ID, bob.ID, carol.ID})
	if len(data) != 2 || len(eventsFor(data, bob.ConnectionID, EventVoiceData)) != 0 {
		t.Fatalf("voice data must reach everyone but the sender: %+v", data)
	}
	if ev := only(t, data, carol.ConnectionID, EventVoiceData); ev.MimeType != "audio/webm" || ev.UserID != bob.ID {
		t.Fatalf("unexpected data event: %+v", ev)
	}
}

func TestRelayRetract(t *testing.T) {
	relay, users := newTestRelay(t, "alice", "bob")
	alice, bob := users[0], users[1]

	notes := relay.Retract(Pair{From: alice.ID, To: bob.ID})
	if ev := only(t, notes, alice.ConnectionID, EventVoiceNegotiationTimeout); ev.UserID != bob.ID {
		t.Fatalf("offerer should learn the peer id: %+v", ev)
	}
	if ev := only(t, notes, bob.ConnectionID, EventVoiceNegotiationTimeout); ev.UserID != alice.ID {
		t.Fatalf("target should learn the offerer id: %+v", ev)
	}
}
