package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	logger := zerolog.Nop()
	return NewHub(&logger)
}

// nextEvent pops the next queued event, failing if none arrives.
// Dispatch is synchronous, so events are already buffered when it returns.
func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		if ev == nil {
			t.Fatal("received nil event")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected an event, got none")
		return nil
	}
}

// mustEvent skips queued events until one of the wanted kind arrives.
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// noEvent asserts the client's queue is empty.
func noEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got kind %v", ev.Kind)
	default:
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func memberIDs(clients []ClientInfo) []string {
	ids := make([]string, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
