package live

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, h *Hub, scopes ...string) *websocket.Conn {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/live", h.Handler(func(*http.Request) []string { return scopes }))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	hello := readEvent(t, conn)
	require.Equal(t, "hello", hello.Type)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotify_OnlyMatchingScope(t *testing.T) {
	h := NewHub(log.New(io.Discard))
	mine := dialHub(t, h, PlayerScope("p1"))
	other := dialHub(t, h, PlayerScope("p2"))
	waitForClients(t, h, 2)

	h.Notify(PlayerScope("p1"), "inventory")

	ev := readEvent(t, mine)
	assert.Equal(t, "changed", ev.Type)
	assert.Equal(t, "player:p1", ev.Scope)
	assert.Equal(t, "inventory", ev.Topic)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	var ev2 Event
	assert.Error(t, other.ReadJSON(&ev2), "other player gets nothing")
}

func TestSubscribe_BiomeScope(t *testing.T) {
	h := NewHub(log.New(io.Discard))
	conn := dialHub(t, h)
	waitForClients(t, h, 1)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "subscribe", Scope: BiomeScope("forest")}))
	ack := readEvent(t, conn)
	require.Equal(t, "subscribed", ack.Type)

	h.Notify(BiomeScope("forest"), "nodes")
	ev := readEvent(t, conn)
	assert.Equal(t, "nodes", ev.Topic)
}

func TestDisconnect_RemovesClient(t *testing.T) {
	h := NewHub(log.New(io.Discard))
	conn := dialHub(t, h, PlayerScope("p1"))
	waitForClients(t, h, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, h, 0)
}

func TestNotify_StalledClientDoesNotBlock(t *testing.T) {
	h := NewHub(log.New(io.Discard))
	healthy := dialHub(t, h, PlayerScope("p1"))
	waitForClients(t, h, 1)

	// No writer drains this client, so its buffer fills and stays full.
	stalled := newClientConn(nil, []string{BiomeScope("forest")})
	h.addClient(stalled)
	require.Equal(t, 2, h.Clients())

	start := time.Now()
	for i := 0; i < sendBuffer+10; i++ {
		h.Notify(BiomeScope("forest"), "nodes")
	}
	assert.Less(t, time.Since(start), time.Second)

	select {
	case <-stalled.done:
	default:
		t.Fatal("stalled client should be closed")
	}
	assert.Equal(t, 1, h.Clients())

	h.Notify(PlayerScope("p1"), "inventory")
	ev := readEvent(t, healthy)
	assert.Equal(t, "inventory", ev.Topic)
}

func TestNotify_NonReadingSocketDoesNotBlock(t *testing.T) {
	h := NewHub(log.New(io.Discard))
	_ = dialHub(t, h, PlayerScope("p1"))
	waitForClients(t, h, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10*sendBuffer; i++ {
			h.Notify(PlayerScope("p1"), "inventory")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a client that never reads")
	}
}
