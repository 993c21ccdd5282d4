package websocket

import (
	"testing"
)

func TestRoomFanOut(t *testing.T) {
	m := NewManager(nil)
	a, aft := newTestSocket(m)
	b, bft := newTestSocket(m)
	_, cft := newTestSocket(m)

	a.Join("r")
	b.Join("r")

	// SendToRoom reaches every member including the sender; C is outside.
	if err := a.SendToRoom("r", []byte("m1")); err != nil {
		t.Fatalf("SendToRoom error: %v", err)
	}
	if got := aft.messages(); len(got) != 1 || got[0] != "m1" {
		t.Errorf("A received %v, want [m1]", got)
	}
	if got := bft.messages(); len(got) != 1 || got[0] != "m1" {
		t.Errorf("B received %v, want [m1]", got)
	}
	if got := cft.messages(); len(got) != 0 {
		t.Errorf("C received %v, want nothing", got)
	}

	// BroadcastToRoom excludes the sender.
	if err := a.BroadcastToRoom("r", []byte("m2")); err != nil {
		t.Fatalf("BroadcastToRoom error: %v", err)
	}
	if got := aft.messages(); len(got) != 1 {
		t.Errorf("A received %v, broadcast should exclude the sender", got)
	}
	if got := bft.messages(); len(got) != 2 || got[1] != "m2" {
		t.Errorf("B received %v, want [m1 m2]", got)
	}
}

func TestRoomFanOutWithoutMembership(t *testing.T) {
	m := NewManager(nil)
	outsider, _ := newTestSocket(m)
	member, mft := newTestSocket(m)
	member.Join("r")

	// The sender need not belong to the room.
	if err := outsider.SendToRoom("r", []byte("hello")); err != nil {
		t.Fatalf("SendToRoom error: %v", err)
	}
	if got := mft.messages(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("member received %v, want [hello]", got)
	}
}

func TestDisconnectDropsMemberships(t *testing.T) {
	m := NewManager(nil)
	a, _ := newTestSocket(m)
	b, bft := newTestSocket(m)

	a.Join("r")
	b.Join("r")

	a.disposeWith(nil)

	if members := m.MembersOf("r"); len(members) != 1 {
		t.Errorf("room has %d members after disconnect, want 1", len(members))
	}
	if len(m.RoomsOf(a)) != 0 {
		t.Error("disconnected socket still holds memberships")
	}

	if err := b.SendToRoom("r", []byte("m")); err != nil {
		t.Fatalf("SendToRoom error: %v", err)
	}
	if got := bft.messages(); len(got) != 1 || got[0] != "m" {
		t.Errorf("B received %v, want [m]", got)
	}

	// Second disconnect is a no-op.
	m.OnDisconnect(a)
	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}
}

func TestLastMemberLeavingRemovesRoom(t *testing.T) {
	m := NewManager(nil)
	a, _ := newTestSocket(m)

	if added := m.Join(a, "solo"); !added {
		t.Error("first Join should report a new membership")
	}
	if added := m.Join(a, "solo"); added {
		t.Error("repeated Join should not report a new membership")
	}

	m.Leave(a, "solo")
	if m.HasRoom("solo") {
		t.Error("room should vanish with its last member")
	}
}

func TestBroadcastAndSendToAll(t *testing.T) {
	m := NewManager(nil)
	a, aft := newTestSocket(m)
	_, bft := newTestSocket(m)

	a.Broadcast([]byte("b"))
	if got := aft.messages(); len(got) != 0 {
		t.Errorf("sender received its own broadcast: %v", got)
	}
	if got := bft.messages(); len(got) != 1 || got[0] != "b" {
		t.Errorf("peer received %v, want [b]", got)
	}

	a.SendToAll([]byte("all"))
	if got := aft.messages(); len(got) != 1 || got[0] != "all" {
		t.Errorf("sender received %v, want [all]", got)
	}
	if got := bft.messages(); len(got) != 2 || got[1] != "all" {
		t.Errorf("peer received %v, want [b all]", got)
	}
}

func TestByID(t *testing.T) {
	m := NewManager(nil)
	a, _ := newTestSocket(m)
	b, _ := newTestSocket(m)

	found, ok := m.ByID(b.ID())
	if !ok || found != b {
		t.Errorf("ByID(%d) = %v/%v", b.ID(), found, ok)
	}

	a.disposeWith(nil)
	if _, ok := m.ByID(a.ID()); ok {
		t.Error("disposed socket should not be found")
	}
}

func TestFanOutSkipsFailingPeer(t *testing.T) {
	m := NewManager(nil)
	a, _ := newTestSocket(m)
	_, deadft := newTestSocket(m)
	_, liveft := newTestSocket(m)

	// The dead transport fails writes but the socket is still registered,
	// as happens when a peer drops mid-fanout.
	deadft.CloseWith(CloseNormal, "")

	a.Broadcast([]byte("m"))

	if got := liveft.messages(); len(got) != 1 || got[0] != "m" {
		t.Errorf("live peer received %v, want [m]", got)
	}
	if got := deadft.messages(); len(got) != 0 {
		t.Errorf("dead peer received %v", got)
	}
}
