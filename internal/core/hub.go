package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Hub is the session lifecycle manager. It owns the connection registry and
// the room directory and is the only component that mutates them; rooms do
// their own fan-out under their own lock, so traffic in one room never
// blocks another.
type Hub struct {
	registry *Registry
	log      *zerolog.Logger

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewHub creates a hub with an empty registry and directory.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		registry: NewRegistry(),
		log:      logger,
		rooms:    make(map[string]*Room),
	}
}

// Run blocks until the context is cancelled, then disconnects every
// remaining client so nothing leaks on shutdown.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	for _, c := range h.registry.All() {
		h.Disconnect(c)
	}
}

// Disconnect runs the same cleanup as an explicit leave, without assuming
// the client can still receive anything. Safe to call more than once;
// cleanup runs exactly once even if it races an explicit leave.
func (h *Hub) Disconnect(c *Client) {
	h.leave(c)
}

// Dispatch processes one client command. It is called from the client's
// single reader goroutine, so commands from one connection keep their order.
func (h *Hub) Dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoin:
		h.join(c, cmd.Room, cmd.Username, cmd.Listening)
	case CommandLeave:
		h.leave(c)
	case CommandCodeChange:
		if r := c.currentRoom(); r != nil {
			r.codeChange(c, cmd.Code)
		}
	case CommandSyncCode:
		r := c.currentRoom()
		if r == nil || !r.syncCode(c, cmd.Target, cmd.Code) {
			h.log.Debug().Str("conn_id", c.ID).Str("target", cmd.Target).Msg("sync-code target unreachable")
		}
	case CommandStartVoiceChat:
		if r := c.currentRoom(); r != nil {
			r.setVoice(c, true)
		}
	case CommandEndVoiceChat:
		if r := c.currentRoom(); r != nil {
			r.setVoice(c, false)
		}
	case CommandVoiceOffer:
		h.relay(c, EventVoiceOffer, cmd)
	case CommandVoiceAnswer:
		h.relay(c, EventVoiceAnswer, cmd)
	case CommandICECandidate:
		h.relay(c, EventICECandidate, cmd)
	}
}

// RoomCount reports the number of active rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	return h.registry.Len()
}

func (h *Hub) join(c *Client, roomID, username string, listening bool) {
	if roomID == "" || username == "" {
		c.trySend(&Event{
			Kind:  EventError,
			Error: coreError(ErrCodeInvalidRequest, "roomId and username are required"),
		})
		return
	}

	// A second join replaces the prior room association.
	h.leave(c)

	// A participant exists in the registry exactly while it is joined;
	// removal happens atomically with its room removal in leave.
	h.registry.Add(c)

	for {
		h.mu.Lock()
		r, ok := h.rooms[roomID]
		if !ok {
			r = newRoom(roomID)
			h.rooms[roomID] = r
		}
		h.mu.Unlock()

		if r.add(c, username, listening) {
			h.log.Info().Str("conn_id", c.ID).Str("room", roomID).Str("username", username).Msg("joined room")
			return
		}
		// Lost the race against the last leaver closing the room; drop the
		// stale entry and retry with a fresh one.
		h.dropRoom(roomID, r)
	}
}

func (h *Hub) leave(c *Client) {
	r := c.currentRoom()
	if r == nil {
		return
	}
	removed, empty := r.remove(c)
	if !removed {
		return
	}
	h.registry.Remove(c.ID)
	if empty {
		h.dropRoom(r.ID, r)
	}
	h.log.Info().Str("conn_id", c.ID).Str("room", r.ID).Msg("left room")
}

func (h *Hub) relay(c *Client, kind EventKind, cmd *Command) {
	r := c.currentRoom()
	if r == nil || !r.relay(c, kind, cmd.Target, cmd.Signal) {
		// Best effort: the target left or is in another room.
		h.log.Debug().Str("conn_id", c.ID).Str("target", cmd.Target).Msg("signal target unreachable")
	}
}

func (h *Hub) dropRoom(id string, r *Room) {
	h.mu.Lock()
	if h.rooms[id] == r {
		delete(h.rooms, id)
	}
	h.mu.Unlock()
}
