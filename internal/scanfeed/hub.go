// Package scanfeed streams menu-scan progress to watching clients. Each
// scan gets its own room; matches are pushed as they resolve and kept in
// a bounded history so late joiners still see the full result.
package scanfeed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vinohub/pkg/models"
)

const defaultHistorySize = 50

type Message struct {
	Type   string            `json:"type"` // "match.found", "scan.complete", "watcher_join", "watcher_leave"
	ScanID string            `json:"scan_id"`
	User   string            `json:"user,omitempty"`
	Match  *models.ScanMatch `json:"match,omitempty"`
	Count  int               `json:"count,omitempty"`
	At     time.Time         `json:"at"`
}

type room struct {
	connections map[*websocket.Conn]string
	history     []Message
}

type Hub struct {
	mu          sync.Mutex
	rooms       map[string]*room
	historySize int
}

func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Hub{
		rooms:       make(map[string]*room),
		historySize: historySize,
	}
}

// Join adds a watcher and replays the room's history to it. The replay
// happens under the hub lock so a concurrent broadcast cannot interleave
// with it on the same socket.
func (h *Hub) Join(scanID string, ws *websocket.Conn, user string) {
	h.mu.Lock()
	r := h.roomLocked(scanID)
	r.connections[ws] = user
	for _, msg := range r.history {
		if b, err := json.Marshal(msg); err == nil {
			_ = ws.WriteMessage(websocket.TextMessage, b)
		}
	}
	h.mu.Unlock()

	h.Broadcast(Message{
		Type:   "watcher_join",
		ScanID: scanID,
		User:   user,
		At:     time.Now().UTC(),
	})
}

func (h *Hub) Leave(scanID string, ws *websocket.Conn) {
	var user string
	h.mu.Lock()
	if r, ok := h.rooms[scanID]; ok {
		if u, exists := r.connections[ws]; exists {
			user = u
		}
		delete(r.connections, ws)
	}
	h.mu.Unlock()

	_ = ws.Close()

	if user != "" {
		h.Broadcast(Message{
			Type:   "watcher_leave",
			ScanID: scanID,
			User:   user,
			At:     time.Now().UTC(),
		})
	}
}

// MatchFound publishes a resolved menu entry to the scan's room.
func (h *Hub) MatchFound(scanID string, match models.ScanMatch) {
	h.Broadcast(Message{
		Type:   "match.found",
		ScanID: scanID,
		Match:  &match,
		At:     time.Now().UTC(),
	})
}

// Complete marks the scan finished with its final match count.
func (h *Hub) Complete(scanID string, count int) {
	h.Broadcast(Message{
		Type:   "scan.complete",
		ScanID: scanID,
		Count:  count,
		At:     time.Now().UTC(),
	})
}

func (h *Hub) Broadcast(msg Message) {
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// match.found and scan.complete survive in history even when the room
	// has no watchers yet; joins and leaves are transient.
	recorded := msg.Type == "match.found" || msg.Type == "scan.complete"

	r, ok := h.rooms[msg.ScanID]
	if !ok {
		if !recorded {
			return
		}
		r = h.roomLocked(msg.ScanID)
	}

	if recorded {
		r.history = append(r.history, msg)
		if len(r.history) > h.historySize {
			r.history = r.history[len(r.history)-h.historySize:]
		}
	}

	for ws := range r.connections {
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = ws.Close()
			delete(r.connections, ws)
		}
	}
}

func (h *Hub) History(scanID string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[scanID]; ok {
		return append([]Message(nil), r.history...)
	}
	return nil
}

// Drop forgets a scan's room entirely, closing any remaining watchers.
func (h *Hub) Drop(scanID string) {
	h.mu.Lock()
	r, ok := h.rooms[scanID]
	if ok {
		delete(h.rooms, scanID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	for ws := range r.connections {
		_ = ws.Close()
	}
}

func (h *Hub) roomLocked(scanID string) *room {
	r, ok := h.rooms[scanID]
	if !ok {
		r = &room{connections: make(map[*websocket.Conn]string)}
		h.rooms[scanID] = r
	}
	return r
}
