package core

import (
	"encoding/json"
	"sync"
)

// Room groups clients editing the same document. Its mutex is the
// serialization point for everything that happens inside the room:
// membership changes, snapshot updates, broadcasts, and signaling relays
// all run under it, so membership events are never reordered relative to
// same-room traffic. Unrelated rooms never contend.
type Room struct {
	ID string

	mu       sync.Mutex
	members  []*Client // insertion order, drives client-list rendering
	snapshot string
	closed   bool
}

func newRoom(id string) *Room {
	return &Room{ID: id}
}

// add appends the client to the membership list and broadcasts the updated
// list to every member, joiner included. Returns false if the room was
// already closed by its last leaver, in which case the caller must create
// a fresh room and retry.
func (r *Room) add(c *Client, username string, listening bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}

	c.setRoom(r)
	c.Username = username
	c.voiceActive = false
	c.listening = listening
	r.members = append(r.members, c)

	r.broadcast(&Event{
		Kind:    EventJoined,
		Room:    r.ID,
		User:    username,
		Conn:    c.ID,
		Clients: r.clientInfos(),
	}, nil)
	return true
}

// remove drops the client from the membership list, synthesizes an
// end-voice-chat broadcast if it was mid voice chat, and announces the
// updated list to the remaining members. Returns (removed, empty); when
// empty the room is closed and must be dropped from the directory.
func (r *Room) remove(c *Client) (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, m := range r.members {
		if m == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, false
	}

	r.members = append(r.members[:idx], r.members[idx+1:]...)
	c.setRoom(nil)
	wasVoice := c.voiceActive
	c.voiceActive = false

	if wasVoice {
		// Remaining peers tear down their own peer connection for this id.
		r.broadcast(&Event{Kind: EventVoiceEnded, Room: r.ID, Conn: c.ID}, nil)
		r.broadcast(&Event{Kind: EventVoiceUsers, Room: r.ID, Clients: r.clientInfos()}, nil)
	}

	r.broadcast(&Event{
		Kind:    EventLeft,
		Room:    r.ID,
		User:    c.Username,
		Conn:    c.ID,
		Clients: r.clientInfos(),
	}, nil)

	if len(r.members) == 0 {
		r.closed = true
		return true, true
	}
	return true, false
}

// codeChange records the new snapshot and fans the payload out to every
// member except the sender. Stale senders (already removed) are dropped.
func (r *Room) codeChange(from *Client, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.containsLocked(from) {
		return
	}
	r.snapshot = code
	r.broadcast(&Event{Kind: EventCodeChange, Room: r.ID, Conn: from.ID, Code: code}, from)
}

// syncCode hands the snapshot directly to one target connection. A target
// that already left is a no-op; nothing is delivered to anyone else.
func (r *Room) syncCode(from *Client, targetID, code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.containsLocked(from) {
		return false
	}
	target := r.memberLocked(targetID)
	if target == nil {
		return false
	}
	target.trySend(&Event{Kind: EventSyncCode, Room: r.ID, Conn: from.ID, Code: code})
	return true
}

// setVoice flips the voice-active flag and tells the whole room, first who
// toggled, then the full list with updated flags.
func (r *Room) setVoice(c *Client, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.containsLocked(c) {
		return
	}
	c.voiceActive = active

	kind := EventVoiceStarted
	if !active {
		kind = EventVoiceEnded
	}
	r.broadcast(&Event{Kind: kind, Room: r.ID, Conn: c.ID}, nil)
	r.broadcast(&Event{Kind: EventVoiceUsers, Room: r.ID, Clients: r.clientInfos()}, nil)
}

// relay forwards an opaque signaling payload to one target connection in
// the same room. Unreachable targets cause a silent drop: the sender's
// negotiation times out and retries on its own.
func (r *Room) relay(from *Client, kind EventKind, targetID string, signal json.RawMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.containsLocked(from) {
		return false
	}
	target := r.memberLocked(targetID)
	if target == nil {
		return false
	}
	target.trySend(&Event{Kind: kind, Room: r.ID, Conn: from.ID, Signal: signal})
	return true
}

// Snapshot returns the last known document text. Advisory only.
func (r *Room) Snapshot() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

func (r *Room) containsLocked(c *Client) bool {
	for _, m := range r.members {
		if m == c {
			return true
		}
	}
	return false
}

func (r *Room) memberLocked(id string) *Client {
	for _, m := range r.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r *Room) clientInfos() []ClientInfo {
	infos := make([]ClientInfo, 0, len(r.members))
	for _, m := range r.members {
		infos = append(infos, ClientInfo{
			ID:          m.ID,
			Username:    m.Username,
			InVoiceChat: m.voiceActive,
			Listening:   m.listening,
		})
	}
	return infos
}

// broadcast sends an event to all members except the excluded one.
func (r *Room) broadcast(ev *Event, except *Client) {
	for _, m := range r.members {
		if m == except {
			continue
		}
		m.trySend(ev)
	}
}
