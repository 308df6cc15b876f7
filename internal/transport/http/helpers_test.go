package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/codesync-server/internal/auth"
	"github.com/vovakirdan/codesync-server/internal/core"
	"github.com/vovakirdan/codesync-server/internal/store/sqlite"
)

// startTestServer spins up the full router over an in-memory store.
func startTestServer(t *testing.T) (*httptest.Server, *auth.Service) {
	t.Helper()

	logger := zerolog.Nop()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	hub := core.NewHub(&logger)
	srv := httptest.NewServer(NewRouter(hub, authService, st, &logger))
	t.Cleanup(srv.Close)
	return srv, authService
}

// wsEnvelope mirrors the outbound wire frame for test assertions.
type wsEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error json.RawMessage `json:"error"`
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func sendWS(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := wsjson.Write(ctx, conn, map[string]any{"type": msgType, "data": data}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readWS(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var env wsEnvelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

// expectWS reads frames until one of the wanted type arrives.
func expectWS(t *testing.T, conn *websocket.Conn, msgType string) wsEnvelope {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		env := readWS(t, conn)
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("no %s frame within deadline", msgType)
	return wsEnvelope{}
}

func decodeData(t *testing.T, env wsEnvelope, out any) {
	t.Helper()

	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode %s data: %v", env.Type, err)
	}
}
