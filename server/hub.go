package server

import (
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans messages out to every connected WebSocket client. It doubles as
// the pipeline's progress callback so ingest progress reaches dashboards.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends the message to every client. A client that fails to write
// is dropped.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("Error sending message: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Progress satisfies pipeline.Progress.
func (h *Hub) Progress(stage string, current, total int) {
	content := fmt.Sprintf("%s: %d", stage, current)
	if total >= 0 {
		content = fmt.Sprintf("%s: %d/%d", stage, current, total)
	}

	h.Broadcast(Message{
		Type:    "progress",
		Content: content,
		Data: map[string]interface{}{
			"stage":   stage,
			"current": current,
			"total":   total,
		},
	})
}
