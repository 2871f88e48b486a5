package core

import (
	"encoding/json"
	"testing"
	"time"
)

const testSDP = "v=0\r\n" +
	"o=- 4611731400430051336 2 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=rtpmap:111 opus/48000/2\r\n"

func sdpPayload(t testing.TB, kind string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"type": kind, "sdp": testSDP})
	if err != nil {
		t.Fatalf("marshal sdp: %v", err)
	}
	return raw
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

type testEnv struct {
	registry *Registry
	channels *ChannelStore
	voice    *VoiceRooms
	nego     *Negotiations
	coord    *Coordinator
}

func newTestEnv(t testing.TB, opts ...Option) *testEnv {
	t.Helper()
	registry := NewRegistry(0)
	channels := NewChannelStore(registry, 0)
	channels.Bootstrap([]string{"genel", "sohbet", "kodlama", "yardım"})
	env := &testEnv{
		registry: registry,
		channels: channels,
		voice:    NewVoiceRooms(),
		nego:     NewNegotiations(30 * time.Second),
	}
	env.coord = NewCoordinator(Components{
		Registry:     registry,
		Channels:     channels,
		Voice:        env.voice,
		Negotiations: env.nego,
		Relay:        NewRelay(registry, nil),
	}, nil, opts...)
	return env
}

// join connects connID, registers name and enters channel (if non-empty).
func (e *testEnv) join(t testing.TB, connID, name, channel string) User {
	t.Helper()
	e.coord.Connect(connID)
	notes := e.coord.Handle(connID, Command{Kind: CommandRegister, Username: name})
	info := only(t, notes, connID, EventUserInfo)
	if channel != "" {
		e.coord.Handle(connID, Command{Kind: CommandJoinChannel, Channel: channel})
	}
	u, err := e.registry.LookupByID(info.User.ID)
	if err != nil {
		t.Fatalf("lookup %s: %v", name, err)
	}
	return u
}

// eventsFor filters the notifications addressed to connID with the given kind.
func eventsFor(notes []Notification, connID string, kind EventKind) []*Event {
	var out []*Event
	for _, n := range notes {
		if n.ConnID == connID && n.Event.Kind == kind {
			out = append(out, n.Event)
		}
	}
	return out
}

func only(t testing.TB, notes []Notification, connID string, kind EventKind) *Event {
	t.Helper()
	evs := eventsFor(notes, connID, kind)
	if len(evs) != 1 {
		t.Fatalf("conn %s: expected exactly one event %v, got %d (%+v)", connID, kind, len(evs), notes)
	}
	return evs[0]
}
