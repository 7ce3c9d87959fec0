package sync

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans change events out to every connected client, TCP and
// WebSocket alike. Clients are fire-and-forget: a failed write drops
// the connection.
type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}
	events    int64
	lastEvent time.Time
}

type Stats struct {
	TCPClients int       `json:"tcp_clients"`
	WSClients  int       `json:"ws_clients"`
	Events     int64     `json:"events"`
	LastEvent  time.Time `json:"last_event,omitempty"`
}

type welcome struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Clients int    `json:"clients"`
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	h.events++
	h.lastEvent = time.Now().UTC()

	// TCP clients get newline-delimited JSON.
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if _, err := c.Write(b); err != nil {
			_ = c.Close()
			delete(h.clients, c)
		}
	}

	for ws := range h.wsClients {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) + len(h.wsClients)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
		Events:     h.events,
		LastEvent:  h.lastEvent,
	}
}

func (h *Hub) Welcome(conn net.Conn) {
	b, err := json.Marshal(welcome{Type: "welcome", Message: "connected", Clients: h.Count()})
	if err != nil {
		return
	}
	_, _ = conn.Write(append(b, '\n'))
}
