package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Message type vocabulary. The same names are used in both directions where
// the event round-trips (code-change, voice signaling).
const (
	TypeJoin         = "join"
	TypeJoined       = "joined"
	TypeLeave        = "leave"
	TypeDisconnected = "disconnected"
	TypeCodeChange   = "code-change"
	TypeSyncCode     = "sync-code"
	TypeStartVoice   = "start-voice-chat"
	TypeEndVoice     = "end-voice-chat"
	TypeVoiceOffer   = "voice-offer"
	TypeVoiceAnswer  = "voice-answer"
	TypeICECandidate = "ice-candidate"
	TypeVoiceUsers   = "voice-chat-users-updated"
	TypeError        = "error"
)

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ClientInfo describes one room member in list-carrying payloads.
type ClientInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	InVoiceChat bool   `json:"isInVoiceChat"`
	Listening   bool   `json:"isListening"`
}

// JoinData requests to join a room. Listening mirrors the client-local
// playback preference; it defaults to true when omitted.
type JoinData struct {
	RoomID    string `json:"roomId"`
	Username  string `json:"username"`
	Listening *bool  `json:"listening,omitempty"`
}

// JoinedData announces a membership change to the whole room, joiner
// included, carrying the full member list in join order.
type JoinedData struct {
	Clients      []ClientInfo `json:"clients"`
	Username     string       `json:"username"`
	ConnectionID string       `json:"connectionId"`
}

// CodeChangeData carries a document update. RoomID is set only inbound.
type CodeChangeData struct {
	RoomID string `json:"roomId,omitempty"`
	Code   string `json:"code"`
}

// SyncCodeData hands the full snapshot to one newly joined connection.
// ConnectionID is the target inbound and omitted outbound.
type SyncCodeData struct {
	Code         string `json:"code"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// VoiceToggleData marks a voice chat start/stop. RoomID is set inbound;
// ConnectionID identifies the toggling member outbound.
type VoiceToggleData struct {
	RoomID       string `json:"roomId,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// VoiceOfferData relays a WebRTC offer. To addresses the target inbound;
// From identifies the sender outbound. The SDP payload is never inspected.
type VoiceOfferData struct {
	Offer json.RawMessage `json:"offer"`
	To    string          `json:"to,omitempty"`
	From  string          `json:"from,omitempty"`
}

// VoiceAnswerData relays a WebRTC answer back to the offerer.
type VoiceAnswerData struct {
	Answer json.RawMessage `json:"answer"`
	To     string          `json:"to,omitempty"`
	From   string          `json:"from,omitempty"`
}

// ICECandidateData relays one ICE candidate; many may flow per pair, in
// either direction, order not significant.
type ICECandidateData struct {
	Candidate json.RawMessage `json:"candidate"`
	To        string          `json:"to,omitempty"`
	From      string          `json:"from,omitempty"`
}

// VoiceUsersData carries the member list with refreshed voice flags.
type VoiceUsersData struct {
	Clients []ClientInfo `json:"clients"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
