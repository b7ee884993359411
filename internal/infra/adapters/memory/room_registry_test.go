package memory

import (
	"testing"

	"github.com/google/uuid"
)

func TestJoinIsIdempotent(t *testing.T) {
	reg := NewRoomRegistry()
	connID := uuid.New()

	reg.Join("r1", connID)
	reg.Join("r1", connID)

	members := reg.MembersOf("r1")
	if len(members) != 1 {
		t.Fatalf("expected 1 member after duplicate join, got %d", len(members))
	}
	if members[0] != connID {
		t.Fatalf("unexpected member %s", members[0])
	}
}

func TestLeavePrunesEmptyRoom(t *testing.T) {
	reg := NewRoomRegistry()
	a := uuid.New()
	b := uuid.New()

	reg.Join("r1", a)
	reg.Join("r1", b)

	reg.Leave("r1", a)
	if got := len(reg.MembersOf("r1")); got != 1 {
		t.Fatalf("expected 1 member after first leave, got %d", got)
	}

	reg.Leave("r1", b)
	if got := reg.MembersOf("r1"); got != nil {
		t.Fatalf("expected room to be pruned, still has members %v", got)
	}
	if reg.IsMember("r1", b) {
		t.Fatal("member still present in pruned room")
	}
}

func TestLeaveUnknownIsNoop(t *testing.T) {
	reg := NewRoomRegistry()

	// Neither the room nor the member exists.
	reg.Leave("nope", uuid.New())

	reg.Join("r1", uuid.New())
	reg.Leave("r1", uuid.New())

	if got := len(reg.MembersOf("r1")); got != 1 {
		t.Fatalf("leave of a non-member changed the member set, got %d members", got)
	}
}

func TestMemberCountAfterJoinsAndLeaves(t *testing.T) {
	reg := NewRoomRegistry()

	const n = 5
	const m = 3

	conns := make([]uuid.UUID, n)
	for i := range conns {
		conns[i] = uuid.New()
		reg.Join("r1", conns[i])
	}

	for i := 0; i < m; i++ {
		reg.Leave("r1", conns[i])
	}

	if got := len(reg.MembersOf("r1")); got != n-m {
		t.Fatalf("expected %d members, got %d", n-m, got)
	}
}

func TestIsMember(t *testing.T) {
	reg := NewRoomRegistry()
	connID := uuid.New()

	if reg.IsMember("r1", connID) {
		t.Fatal("member of a room that does not exist")
	}

	reg.Join("r1", connID)

	if !reg.IsMember("r1", connID) {
		t.Fatal("joined connection not reported as member")
	}
	if reg.IsMember("r2", connID) {
		t.Fatal("member of a room it never joined")
	}
}

func TestClear(t *testing.T) {
	reg := NewRoomRegistry()

	reg.Join("r1", uuid.New())
	reg.Join("r2", uuid.New())

	reg.Clear()

	if reg.MembersOf("r1") != nil || reg.MembersOf("r2") != nil {
		t.Fatal("rooms survived Clear")
	}
}
