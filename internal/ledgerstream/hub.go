// Package ledgerstream pushes each newly appended ledger entry to a
// live websocket client. It is adapted from the teacher's single-client
// proxy-traffic Hub in internal/websocket: the same one-active-client
// register/unregister/broadcast shape, repurposed from "live HTTP
// traffic" to "live ledger tail" — an operator console can watch role
// turns land without polling GET /reports.
package ledgerstream

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/govkernel/chain/internal/ledger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans out ledger entries to at most one connected client at a
// time, mirroring the teacher's Hub: a second connection displaces the
// first rather than multiplexing to many.
type Hub struct {
	logger *zap.Logger

	mu     sync.RWMutex
	client *client

	broadcast  chan []byte
	register   chan *client
	unregister chan *client
}

// NewHub builds a Hub. Run must be started in its own goroutine before
// any client connects.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type tailMessage struct {
	Entry ledger.Entry `json:"entry"`
}

// Run drives the hub's register/unregister/broadcast loop. It blocks
// until ctx-independent shutdown is not needed here: callers run it for
// the process lifetime in its own goroutine, same as the teacher did.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.client != nil {
				close(h.client.send)
			}
			h.client = c
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.client == c {
				close(h.client.send)
				h.client = nil
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if h.client != nil {
				select {
				case h.client.send <- msg:
				default:
					h.logWarn("client send channel full, dropping connection")
					close(h.client.send)
					h.client = nil
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Push publishes one ledger entry to the connected client, if any. A
// disconnected hub silently drops the entry — streaming is an ambient
// convenience, never part of the ledger's trust boundary.
func (h *Hub) Push(e ledger.Entry) {
	h.mu.RLock()
	connected := h.client != nil
	h.mu.RUnlock()
	if !connected {
		return
	}

	raw, err := json.Marshal(tailMessage{Entry: e})
	if err != nil {
		h.logWarn("marshal ledger entry for stream: " + err.Error())
		return
	}
	h.broadcast <- raw
}

// ServeHTTP upgrades the request to a websocket and registers it as
// the hub's active client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logWarn("upgrade failed: " + err.Error())
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256)}
	h.register <- c

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for {
		msg, ok := <-c.send
		if !ok {
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) logWarn(msg string) {
	if h.logger == nil {
		return
	}
	h.logger.Warn("ledgerstream: " + msg)
}
