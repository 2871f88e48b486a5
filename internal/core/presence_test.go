package core

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry(0)

	u, err := r.Register("  alice ", "c1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "alice" || u.ConnectionID != "c1" || u.ID == "" {
		t.Fatalf("unexpected user: %+v", u)
	}

	byConn, err := r.LookupByConnection("c1")
	if err != nil || byConn.ID != u.ID {
		t.Fatalf("lookup by connection: %+v, %v", byConn, err)
	}
	byID, err := r.LookupByID(u.ID)
	if err != nil || byID.ConnectionID != "c1" {
		t.Fatalf("lookup by id: %+v, %v", byID, err)
	}
	if _, err := r.LookupByID("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryRejects(t *testing.T) {
	r := NewRegistry(8)
	if _, err := r.Register("Alice", "c1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name   string
		input  string
		connID string
		want   error
	}{
		{"case folded duplicate", "ALICE", "c2", ErrDuplicateName},
		{"padded duplicate", " alice ", "c3", ErrDuplicateName},
		{"empty", "   ", "c4", ErrInvalidName},
		{"too long", strings.Repeat("x", 9), "c5", ErrInvalidName},
		{"second name on connection", "bob", "c1", ErrAlreadyRegistered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Register(tt.input, tt.connID); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if r.Len() != 1 {
		t.Fatalf("rejected registrations must not add users, have %d", r.Len())
	}
}

func TestRegistryRemoveFreesName(t *testing.T) {
	r := NewRegistry(0)
	if _, err := r.Register("alice", "c1"); err != nil {
		t.Fatal(err)
	}
	r.Remove("c1")
	r.Remove("c1")

	if _, err := r.LookupByConnection("c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected removed user to be gone, got %v", err)
	}
	if _, err := r.Register("Alice", "c2"); err != nil {
		t.Fatalf("name should be free again: %v", err)
	}
}

func TestRegistryListAllKeepsOrder(t *testing.T) {
	r := NewRegistry(0)
	for i, name := range []string{"a", "b", "c"} {
		if _, err := r.Register(name, string(rune('1'+i))); err != nil {
			t.Fatal(err)
		}
	}
	r.Remove("2")

	list := r.ListAll()
	if len(list) != 2 || list[0].Username != "a" || list[1].Username != "c" {
		t.Fatalf("unexpected list: %+v", list)
	}
	list[0].Username = "mutated"
	if got, _ := r.LookupByConnection("1"); got.Username != "a" {
		t.Fatalf("snapshot mutation leaked into registry: %+v", got)
	}
}

func TestRegistryConcurrentSameName(t *testing.T) {
	r := NewRegistry(0)
	const n = 32

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := r.Register("Racer", "conn-"+string(rune('A'+i))); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if winners != 1 || r.Len() != 1 {
		t.Fatalf("expected exactly one winner, got %d (len %d)", winners, r.Len())
	}
}
