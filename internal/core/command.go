package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin subscribes the client to a room.
	CommandJoin CommandKind = iota
	// CommandLeave unsubscribes the client from its room.
	CommandLeave
	// CommandCodeChange broadcasts a document update to the room.
	CommandCodeChange
	// CommandSyncCode hands the current snapshot to one target connection.
	CommandSyncCode
	// CommandStartVoiceChat marks the client voice-active.
	CommandStartVoiceChat
	// CommandEndVoiceChat clears the client's voice-active flag.
	CommandEndVoiceChat
	// CommandVoiceOffer relays a WebRTC offer to one target connection.
	CommandVoiceOffer
	// CommandVoiceAnswer relays a WebRTC answer to one target connection.
	CommandVoiceAnswer
	// CommandICECandidate relays an ICE candidate to one target connection.
	CommandICECandidate
)

// Command represents an action requested by a client.
type Command struct {
	Kind      CommandKind
	Room      string
	Username  string
	Listening bool
	Target    string          // target connection id for sync-code and signaling
	Code      string          // document payload
	Signal    json.RawMessage // opaque offer/answer/candidate, never inspected
}
