package core

import (
	"encoding/json"
	"testing"
)

func TestJoinBroadcastsOrderedMemberList(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})

	ev := nextEvent(t, alice.Events)
	if ev.Kind != EventJoined || ev.User != "alice" || ev.Conn != "a" {
		t.Fatalf("unexpected join event: %+v", ev)
	}
	if !equalIDs(memberIDs(ev.Clients), []string{"a"}) {
		t.Fatalf("unexpected member list: %v", memberIDs(ev.Clients))
	}

	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})

	// Both members receive the updated list, in join order.
	for _, c := range []*Client{alice, bob} {
		ev := nextEvent(t, c.Events)
		if ev.Kind != EventJoined || ev.User != "bob" || ev.Conn != "b" {
			t.Fatalf("unexpected join event for %s: %+v", c.ID, ev)
		}
		if !equalIDs(memberIDs(ev.Clients), []string{"a", "b"}) {
			t.Fatalf("unexpected member list for %s: %v", c.ID, memberIDs(ev.Clients))
		}
	}
}

func TestJoinRequiresRoomAndUsername(t *testing.T) {
	hub := newTestHub()
	alice := NewClient("a", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "", Username: "alice"})
	ev := nextEvent(t, alice.Events)
	if ev.Kind != EventError || ev.Error == nil || ev.Error.Code != ErrCodeInvalidRequest {
		t.Fatalf("expected invalid_request error, got %+v", ev)
	}

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: ""})
	ev = nextEvent(t, alice.Events)
	if ev.Kind != EventError || ev.Error == nil || ev.Error.Code != ErrCodeInvalidRequest {
		t.Fatalf("expected invalid_request error, got %+v", ev)
	}

	if hub.RoomCount() != 0 || hub.ConnectionCount() != 0 {
		t.Fatalf("invalid joins must not create state: rooms=%d conns=%d", hub.RoomCount(), hub.ConnectionCount())
	}
}

func TestSecondJoinReplacesRoomAssociation(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "one", Username: "alice", Listening: true})
	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "one", Username: "bob", Listening: true})
	drain(alice.Events)
	drain(bob.Events)

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "two", Username: "alice", Listening: true})

	// Bob observes the implicit leave from room one.
	left := nextEvent(t, bob.Events)
	if left.Kind != EventLeft || left.Conn != "a" {
		t.Fatalf("expected left event for alice, got %+v", left)
	}
	if !equalIDs(memberIDs(left.Clients), []string{"b"}) {
		t.Fatalf("unexpected remaining members: %v", memberIDs(left.Clients))
	}

	// The departure is broadcast to the remaining members only; alice goes
	// straight to the new room's list.
	joined := nextEvent(t, alice.Events)
	if joined.Kind != EventJoined || joined.Room != "two" {
		t.Fatalf("expected joined event for room two, got %+v", joined)
	}

	if got := alice.currentRoom(); got == nil || got.ID != "two" {
		t.Fatalf("alice should be in room two, got %+v", got)
	}
	if hub.RoomCount() != 2 {
		t.Fatalf("expected two rooms, got %d", hub.RoomCount())
	}
}

func TestRejoinSameRoomDoesNotDuplicateMembership(t *testing.T) {
	hub := newTestHub()
	alice := NewClient("a", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})

	drain(alice.Events)
	hub.Dispatch(alice, &Command{Kind: CommandLeave})

	if hub.RoomCount() != 0 {
		t.Fatalf("room should be gone after single leave, got %d rooms", hub.RoomCount())
	}
}

func TestJoinObservedBeforeSubsequentCodeChange(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	drain(alice.Events)

	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})
	hub.Dispatch(alice, &Command{Kind: CommandCodeChange, Code: "print(1)"})

	// Bob must see his own membership broadcast before any document traffic.
	first := nextEvent(t, bob.Events)
	if first.Kind != EventJoined {
		t.Fatalf("joiner observed %v before its own membership broadcast", first.Kind)
	}
	second := nextEvent(t, bob.Events)
	if second.Kind != EventCodeChange || second.Code != "print(1)" {
		t.Fatalf("expected code change after join, got %+v", second)
	}
}

func TestCodeChangeExcludesSenderAndUpdatesSnapshot(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})
	drain(alice.Events)
	drain(bob.Events)

	hub.Dispatch(alice, &Command{Kind: CommandCodeChange, Code: "x := 1"})

	ev := nextEvent(t, bob.Events)
	if ev.Kind != EventCodeChange || ev.Code != "x := 1" || ev.Conn != "a" {
		t.Fatalf("unexpected code change event: %+v", ev)
	}
	noEvent(t, alice.Events) // no echo

	if got := alice.currentRoom().Snapshot(); got != "x := 1" {
		t.Fatalf("snapshot not updated, got %q", got)
	}
}

func TestCodeChangeWithoutRoomIsDropped(t *testing.T) {
	hub := newTestHub()
	alice := NewClient("a", "")

	hub.Dispatch(alice, &Command{Kind: CommandCodeChange, Code: "orphan"})
	noEvent(t, alice.Events)
}

func TestSyncCodeHandsSnapshotToLateJoiner(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")
	carol := NewClient("c", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})
	hub.Dispatch(alice, &Command{Kind: CommandCodeChange, Code: "print(1)"})
	drain(alice.Events)
	drain(bob.Events)

	hub.Dispatch(carol, &Command{Kind: CommandJoin, Room: "abc123", Username: "carol", Listening: true})
	drain(carol.Events)

	hub.Dispatch(bob, &Command{Kind: CommandSyncCode, Target: "c", Code: "print(1)"})

	ev := nextEvent(t, carol.Events)
	if ev.Kind != EventSyncCode || ev.Code != "print(1)" {
		t.Fatalf("expected direct snapshot handoff, got %+v", ev)
	}
	// Point-to-point only: nobody else hears it.
	noEvent(t, alice.Events)
	noEvent(t, bob.Events)
}

func TestSyncCodeToDepartedTargetIsNoop(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})
	hub.Dispatch(bob, &Command{Kind: CommandLeave})
	drain(alice.Events)
	drain(bob.Events)

	hub.Dispatch(alice, &Command{Kind: CommandSyncCode, Target: "b", Code: "late"})
	noEvent(t, bob.Events)
}

func TestLeaveBroadcastHappensExactlyOnce(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})
	drain(bob.Events)

	// Explicit leave raced by the transport-level disconnect.
	hub.Dispatch(alice, &Command{Kind: CommandLeave})
	hub.Disconnect(alice)

	left := mustEvent(t, bob.Events, EventLeft)
	if left.Conn != "a" || !equalIDs(memberIDs(left.Clients), []string{"b"}) {
		t.Fatalf("unexpected leave broadcast: %+v", left)
	}
	noEvent(t, bob.Events)

	if hub.ConnectionCount() != 1 {
		t.Fatalf("expected one remaining participant, got %d", hub.ConnectionCount())
	}
}

func TestEmptyRoomIsDropped(t *testing.T) {
	hub := newTestHub()
	alice := NewClient("a", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	if hub.RoomCount() != 1 {
		t.Fatalf("expected one room, got %d", hub.RoomCount())
	}

	hub.Disconnect(alice)
	if hub.RoomCount() != 0 {
		t.Fatalf("empty room must be dropped, got %d", hub.RoomCount())
	}
	if hub.ConnectionCount() != 0 {
		t.Fatalf("registry must be empty, got %d", hub.ConnectionCount())
	}

	// A fresh join creates a fresh room with no stale snapshot.
	bob := NewClient("b", "")
	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})
	if got := bob.currentRoom().Snapshot(); got != "" {
		t.Fatalf("expected empty snapshot in recreated room, got %q", got)
	}
}

func TestVoiceChatLifecycle(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})
	drain(alice.Events)
	drain(bob.Events)

	hub.Dispatch(alice, &Command{Kind: CommandStartVoiceChat, Room: "abc123"})
	hub.Dispatch(bob, &Command{Kind: CommandStartVoiceChat, Room: "abc123"})

	started := mustEvent(t, alice.Events, EventVoiceStarted)
	if started.Conn != "a" {
		t.Fatalf("expected alice's own start first, got %+v", started)
	}
	mustEvent(t, bob.Events, EventVoiceUsers)
	drain(alice.Events)
	drain(bob.Events)

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	hub.Dispatch(alice, &Command{Kind: CommandVoiceOffer, Target: "b", Signal: offer})
	got := nextEvent(t, bob.Events)
	if got.Kind != EventVoiceOffer || got.Conn != "a" || string(got.Signal) != string(offer) {
		t.Fatalf("unexpected relayed offer: %+v", got)
	}

	answer := json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	hub.Dispatch(bob, &Command{Kind: CommandVoiceAnswer, Target: "a", Signal: answer})
	got = nextEvent(t, alice.Events)
	if got.Kind != EventVoiceAnswer || got.Conn != "b" || string(got.Signal) != string(answer) {
		t.Fatalf("unexpected relayed answer: %+v", got)
	}

	// ICE flows both ways, each candidate relayed independently.
	hub.Dispatch(alice, &Command{Kind: CommandICECandidate, Target: "b", Signal: json.RawMessage(`{"candidate":"1"}`)})
	hub.Dispatch(bob, &Command{Kind: CommandICECandidate, Target: "a", Signal: json.RawMessage(`{"candidate":"2"}`)})
	if ev := nextEvent(t, bob.Events); ev.Kind != EventICECandidate || ev.Conn != "a" {
		t.Fatalf("unexpected candidate for bob: %+v", ev)
	}
	if ev := nextEvent(t, alice.Events); ev.Kind != EventICECandidate || ev.Conn != "b" {
		t.Fatalf("unexpected candidate for alice: %+v", ev)
	}

	// Ending voice chat excludes alice from the voice list but keeps her in
	// the room.
	hub.Dispatch(alice, &Command{Kind: CommandEndVoiceChat, Room: "abc123"})
	ended := mustEvent(t, bob.Events, EventVoiceEnded)
	if ended.Conn != "a" {
		t.Fatalf("expected end-voice for alice, got %+v", ended)
	}
	users := mustEvent(t, bob.Events, EventVoiceUsers)
	for _, ci := range users.Clients {
		if ci.ID == "a" && ci.InVoiceChat {
			t.Fatal("alice should no longer be voice-active")
		}
		if ci.ID == "b" && !ci.InVoiceChat {
			t.Fatal("bob must stay voice-active")
		}
	}
	if !equalIDs(memberIDs(users.Clients), []string{"a", "b"}) {
		t.Fatalf("room membership must be unchanged, got %v", memberIDs(users.Clients))
	}
}

func TestRelayToTargetOutsideRoomIsNoop(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")
	eve := NewClient("e", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})
	hub.Dispatch(eve, &Command{Kind: CommandJoin, Room: "other", Username: "eve", Listening: true})
	drain(alice.Events)
	drain(bob.Events)
	drain(eve.Events)

	hub.Dispatch(alice, &Command{Kind: CommandVoiceOffer, Target: "e", Signal: json.RawMessage(`{}`)})
	hub.Dispatch(alice, &Command{Kind: CommandVoiceOffer, Target: "ghost", Signal: json.RawMessage(`{}`)})

	noEvent(t, alice.Events)
	noEvent(t, bob.Events)
	noEvent(t, eve.Events)

	// Sender state is untouched.
	if got := alice.currentRoom(); got == nil || got.ID != "abc123" {
		t.Fatalf("sender state changed: %+v", got)
	}
}

func TestDisconnectMidVoiceSynthesizesEndVoice(t *testing.T) {
	hub := newTestHub()

	alice := NewClient("a", "")
	bob := NewClient("b", "")

	hub.Dispatch(alice, &Command{Kind: CommandJoin, Room: "abc123", Username: "alice", Listening: true})
	hub.Dispatch(bob, &Command{Kind: CommandJoin, Room: "abc123", Username: "bob", Listening: true})
	hub.Dispatch(alice, &Command{Kind: CommandStartVoiceChat, Room: "abc123"})
	drain(bob.Events)

	hub.Disconnect(alice)

	// Peers tear down their connection for alice before seeing her leave.
	first := nextEvent(t, bob.Events)
	if first.Kind != EventVoiceEnded || first.Conn != "a" {
		t.Fatalf("expected synthesized end-voice first, got %+v", first)
	}
	left := mustEvent(t, bob.Events, EventLeft)
	if !equalIDs(memberIDs(left.Clients), []string{"b"}) {
		t.Fatalf("unexpected remaining members: %v", memberIDs(left.Clients))
	}
}

func TestConcurrentJoinsAcrossRooms(t *testing.T) {
	hub := newTestHub()

	const rooms = 8
	const perRoom = 4

	done := make(chan struct{})
	for i := 0; i < rooms; i++ {
		room := string(rune('A' + i))
		go func(room string) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < perRoom; j++ {
				c := NewClient(room+string(rune('0'+j)), "")
				hub.Dispatch(c, &Command{Kind: CommandJoin, Room: room, Username: "user", Listening: true})
				hub.Dispatch(c, &Command{Kind: CommandCodeChange, Code: "tick"})
				drain(c.Events)
			}
		}(room)
	}
	for i := 0; i < rooms; i++ {
		<-done
	}

	if hub.RoomCount() != rooms {
		t.Fatalf("expected %d rooms, got %d", rooms, hub.RoomCount())
	}
	if hub.ConnectionCount() != rooms*perRoom {
		t.Fatalf("expected %d participants, got %d", rooms*perRoom, hub.ConnectionCount())
	}
}
