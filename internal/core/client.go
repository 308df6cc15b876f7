package core

import "sync"

// Client is one live editor connection as seen by the core layer.
// ID is the transport-assigned connection id; it is not stable across
// reconnects. Username is bound at join time and may collide between
// participants.
type Client struct {
	ID       string
	Username string
	Events   chan *Event

	mu          sync.Mutex
	room        *Room
	voiceActive bool
	listening   bool
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id, name string) *Client {
	return &Client{
		ID:        id,
		Username:  name,
		Events:    make(chan *Event, 32),
		listening: true,
	}
}

// currentRoom returns the room the client is joined to, or nil.
func (c *Client) currentRoom() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(r *Room) {
	c.mu.Lock()
	c.room = r
	c.mu.Unlock()
}

// trySend queues an event for delivery without blocking.
// Returns false if the client's buffer is full and the event was dropped.
func (c *Client) trySend(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}
