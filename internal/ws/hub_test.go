package ws_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/large-farva/presence-engine/internal/ws"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsToClients(t *testing.T) {
	hub := ws.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })

	hub.BroadcastJSON(map[string]any{"type": "state-change", "to": "ripple"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]any
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got["type"] != "state-change" || got["to"] != "ripple" {
		t.Fatalf("unexpected message %v", got)
	}

	_ = conn.Close()
	waitFor(t, "client removal", func() bool { return hub.Clients() == 0 })
}

func TestBroadcastDropsWhenQueueIsFull(t *testing.T) {
	hub := ws.NewHub(nil)
	// Run is not started, so the queue never drains.
	for i := 0; i < 300; i++ {
		hub.BroadcastJSON(map[string]int{"n": i})
	}
	if got := hub.Dropped(); got != 300-256 {
		t.Fatalf("expected 44 dropped messages, got %d", got)
	}
}
