package core

import "testing"

func TestVoiceRoomsJoinLeave(t *testing.T) {
	v := NewVoiceRooms()

	prior, added := v.Join("genel", "a")
	if !added || len(prior) != 0 {
		t.Fatalf("first join: %v %v", prior, added)
	}
	prior, added = v.Join("genel", "b")
	if !added || len(prior) != 1 || prior[0] != "a" {
		t.Fatalf("second join: %v %v", prior, added)
	}

	prior, added = v.Join("genel", "b")
	if added || len(prior) != 1 || prior[0] != "a" {
		t.Fatalf("duplicate join must not add: %v %v", prior, added)
	}

	remaining, removed := v.Leave("genel", "a")
	if !removed || len(remaining) != 1 || remaining[0] != "b" {
		t.Fatalf("leave: %v %v", remaining, removed)
	}
	if _, removed := v.Leave("genel", "a"); removed {
		t.Fatal("second leave must be a no-op")
	}

	remaining, removed = v.Leave("genel", "b")
	if !removed || len(remaining) != 0 {
		t.Fatalf("last leave: %v %v", remaining, removed)
	}
	if v.Rooms() != 0 {
		t.Fatalf("empty room should be deleted, have %d rooms", v.Rooms())
	}
}

func TestVoiceRoomsMoveBetweenRooms(t *testing.T) {
	v := NewVoiceRooms()
	v.Join("genel", "a")
	v.Join("genel", "b")

	if _, added := v.Join("sohbet", "a"); !added {
		t.Fatal("join of another room should add")
	}
	if room, _ := v.RoomOf("a"); room != "sohbet" {
		t.Fatalf("RoomOf(a) = %q", room)
	}
	if members := v.MembersOf("genel"); len(members) != 1 || members[0] != "b" {
		t.Fatalf("genel members: %v", members)
	}
	if v.Rooms() != 2 {
		t.Fatalf("expected 2 rooms, got %d", v.Rooms())
	}
}
