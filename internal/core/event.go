package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventJoined carries the updated member list after a join.
	EventJoined EventKind = iota
	// EventLeft carries the updated member list after a leave or disconnect.
	EventLeft
	// EventCodeChange delivers a document update to room members.
	EventCodeChange
	// EventSyncCode delivers the full snapshot to one late joiner.
	EventSyncCode
	// EventVoiceStarted notifies the room that a member went voice-active.
	EventVoiceStarted
	// EventVoiceEnded notifies the room that a member left voice chat.
	EventVoiceEnded
	// EventVoiceUsers delivers the member list with current voice flags.
	EventVoiceUsers
	// EventVoiceOffer delivers a relayed WebRTC offer.
	EventVoiceOffer
	// EventVoiceAnswer delivers a relayed WebRTC answer.
	EventVoiceAnswer
	// EventICECandidate delivers a relayed ICE candidate.
	EventICECandidate
	// EventError notifies a client about a domain error.
	EventError
)

// ClientInfo is a member entry in list-carrying events, in join order.
type ClientInfo struct {
	ID          string
	Username    string
	InVoiceChat bool
	Listening   bool
}

// Event is sent to clients to describe what happened in the system.
// Conn identifies the subject connection: the joiner/leaver for membership
// events, the toggler for voice events, the sender for relayed signaling.
type Event struct {
	Kind    EventKind
	Room    string
	User    string
	Conn    string
	Code    string
	Signal  json.RawMessage
	Clients []ClientInfo
	Error   *CoreError
}
