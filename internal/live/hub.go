package live

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Event tells subscribers that something in a scope changed. Clients re-query
// the matching endpoint; the event carries no state.
type Event struct {
	Type  string `json:"type"`
	Scope string `json:"scope"`
	Topic string `json:"topic"`
	At    int64  `json:"at"`
}

func PlayerScope(playerID string) string { return "player:" + playerID }
func BiomeScope(biomeID string) string   { return "biome:" + biomeID }

// sendBuffer is how many events a client may fall behind before it is
// dropped.
const sendBuffer = 64

const writeWait = 5 * time.Second

type clientConn struct {
	conn   *websocket.Conn
	scopes map[string]struct{}
	send   chan Event
	done   chan struct{}
	once   sync.Once
}

func newClientConn(conn *websocket.Conn, scopes []string) *clientConn {
	c := &clientConn{
		conn:   conn,
		scopes: make(map[string]struct{}, len(scopes)),
		send:   make(chan Event, sendBuffer),
		done:   make(chan struct{}),
	}
	for _, s := range scopes {
		c.scopes[s] = struct{}{}
	}
	return c
}

func (c *clientConn) close() {
	c.once.Do(func() { close(c.done) })
}

// writeLoop owns every write to the connection.
func (c *clientConn) writeLoop(logger *log.Logger) {
	defer func() { _ = c.conn.Close() }()
	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				logger.Debug("live write failed", "scope", ev.Scope, "err", err)
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

type Hub struct {
	mu      sync.Mutex
	clients map[*clientConn]struct{}
	logger  *log.Logger
	now     func() time.Time
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients: make(map[*clientConn]struct{}),
		logger:  logger,
		now:     time.Now,
	}
}

func (h *Hub) addClient(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) removeClient(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) subscribe(c *clientConn, scope string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.scopes[scope] = struct{}{}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// enqueue never blocks. A client whose buffer is full is dropped.
func (h *Hub) enqueue(c *clientConn, ev Event) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- ev:
	default:
		h.logger.Debug("live client too slow, dropping", "scope", ev.Scope, "buffered", len(c.send))
		c.close()
		h.removeClient(c)
	}
}

// Notify queues a change event for every client subscribed to scope. It is
// safe to call while holding game locks.
func (h *Hub) Notify(scope, topic string) {
	h.mu.Lock()
	recipients := make([]*clientConn, 0, len(h.clients))
	for c := range h.clients {
		if _, ok := c.scopes[scope]; ok {
			recipients = append(recipients, c)
		}
	}
	h.mu.Unlock()

	ev := Event{Type: "changed", Scope: scope, Topic: topic, At: h.now().UnixMilli()}
	for _, c := range recipients {
		h.enqueue(c, ev)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

type clientMessage struct {
	Type  string `json:"type"`
	Scope string `json:"scope"`
}

// Handler upgrades the request and subscribes the connection to the scopes
// resolved for it. Clients may add biome scopes with
// {"type":"subscribe","scope":"biome:<id>"}.
func (h *Hub) Handler(resolve func(*http.Request) []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var scopes []string
		if resolve != nil {
			scopes = resolve(r)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("live upgrade failed", "err", err)
			return
		}

		client := newClientConn(conn, scopes)
		h.addClient(client)
		go client.writeLoop(h.logger)
		defer func() {
			h.removeClient(client)
			client.close()
		}()

		h.enqueue(client, Event{Type: "hello", At: h.now().UnixMilli()})

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg clientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				continue
			}
			if msg.Type == "subscribe" && strings.HasPrefix(msg.Scope, "biome:") && len(msg.Scope) > len("biome:") {
				h.subscribe(client, msg.Scope)
				h.enqueue(client, Event{Type: "subscribed", Scope: msg.Scope, At: h.now().UnixMilli()})
			}
		}
	}
}
