package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// changeMessage is the wire form pushed to subscribers.
type changeMessage struct {
	Type string `json:"type"`
	Change
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn, send: make(chan []byte, 64), done: make(chan struct{})}
}

// close signals the loops and closes the connection. The send channel is left
// open so a concurrent broadcast can never hit a closed channel.
func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// enqueueBytes never blocks; a subscriber with a full buffer misses the
// update and catches up on its next fetch.
func (c *wsClient) enqueueBytes(b []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Hub fans session change notifications out to websocket subscribers, keyed
// by encounter ID.
type Hub struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*wsClient]struct{}
}

// Ensure Hub implements Notifier
var _ Notifier = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Single local operator; no cross-origin policy to enforce.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subs: make(map[string]map[*wsClient]struct{}),
	}
}

// SessionChanged broadcasts the change to every subscriber of the encounter.
// It never blocks and never reports failure to the caller.
func (h *Hub) SessionChanged(change Change) {
	payload, err := json.Marshal(changeMessage{Type: "session_changed", Change: change})
	if err != nil {
		return
	}

	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.subs[change.EncounterID]))
	for c := range h.subs[change.EncounterID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if !c.enqueueBytes(payload) {
			slog.Debug("Dropped session change notification",
				"encounter_id", change.EncounterID,
			)
		}
	}
}

// HandleSubscribe upgrades the request to a websocket subscription for the
// encounter named by the "encounter" query parameter.
func (h *Hub) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	encounterID := r.URL.Query().Get("encounter")
	if encounterID == "" {
		http.Error(w, "encounter query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := newWSClient(conn)
	h.addSub(encounterID, client)

	go h.writeLoop(client)
	go h.readLoop(encounterID, client)
}

// SubscriberCount reports current subscribers for an encounter.
func (h *Hub) SubscriberCount(encounterID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[encounterID])
}

func (h *Hub) addSub(encounterID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[encounterID] == nil {
		h.subs[encounterID] = make(map[*wsClient]struct{})
	}
	h.subs[encounterID][c] = struct{}{}
}

func (h *Hub) removeSub(encounterID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.subs[encounterID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.subs, encounterID)
		}
	}
}

func (h *Hub) writeLoop(c *wsClient) {
	for {
		select {
		case <-c.done:
			return
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		}
	}
}

// readLoop drains inbound frames so pings are answered and a closed peer is
// noticed promptly. Subscribers have nothing to say to the hub.
func (h *Hub) readLoop(encounterID string, c *wsClient) {
	defer func() {
		h.removeSub(encounterID, c)
		c.close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
