package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"freightchat/internal/pkg/logger"

	"github.com/google/uuid"
)

// Frame is the envelope pushed to renderers.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans state frames out to every connected renderer.
type Hub struct {
	// Registered renderers by connection id
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	// closed when Run returns
	done chan struct{}

	mu     sync.RWMutex
	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run owns client registration and delivery until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Renderer connected", map[string]interface{}{"connection_id": client.ID})

		case client := <-h.unregister:
			h.remove(client)

		case data := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for _, client := range h.clients {
				select {
				case client.Send <- data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				h.logger.Warn("Hub", "Renderer send buffer full, dropping connection", map[string]interface{}{"connection_id": client.ID})
				h.remove(client)
			}
		}
	}
}

// join registers client and reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters client. It returns at once when the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		h.logger.Info("Hub", "Renderer disconnected", map[string]interface{}{"connection_id": client.ID})
	}
}

// Broadcast queues a frame for every connected renderer. It never blocks the
// caller; frames are dropped when the queue is full.
func (h *Hub) Broadcast(frameType string, data interface{}) {
	payload, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"type": frameType, "error": err.Error()})
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Hub", "Broadcast queue full, dropping frame", map[string]interface{}{"type": frameType})
	}
}

// Connections returns the number of connected renderers.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
