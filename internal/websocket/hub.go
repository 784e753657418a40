package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"fleetpulse-backend/internal/tracking"
)

// Hub maintains active WebSocket connections and fans tracking updates out to
// them. Clients subscribe to topics ("driver:<id>", "dispatch:<id>"); a
// driver's own topic is subscribed implicitly at connect. The hub is the
// realtime layer only: a slow or absent consumer never blocks the tracking
// pipeline, and a dropped frame is never retried.
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// Envelope is the wire frame for every outbound tracking update
type Envelope struct {
	Type  string          `json:"type"`
	Topic string          `json:"topic"`
	Data  tracking.Update `json:"data"`
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("✅ [WEBSOCKET] Client connected: %s (role: %s), total: %d",
				client.UserID, client.UserRole, h.GetClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("🔴 [WEBSOCKET] Client disconnected: %s, remaining: %d",
					client.UserID, len(h.clients))
			}
			h.mu.Unlock()
		}
	}
}

// Publish delivers a tracking update to every client subscribed to the topic.
// Fire-and-forget: marshal failures are logged, full client buffers drop the
// frame for that client, and nothing ever propagates back to the caller.
// Satisfies tracking.Publisher.
func (h *Hub) Publish(topic string, u tracking.Update) {
	data, err := json.Marshal(Envelope{Type: "tracking_update", Topic: topic, Data: u})
	if err != nil {
		log.Printf("❌ Failed to marshal tracking update: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !client.subscribed(topic) {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Client buffer full, drop the frame and move on
		}
	}
}

// BroadcastToRole sends a message to all users with a specific role
func (h *Hub) BroadcastToRole(role string, data interface{}) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal broadcast message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserRole == role {
			select {
			case client.send <- dataBytes:
			default:
			}
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID string, data interface{}) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[userID]; ok {
		select {
		case client.send <- dataBytes:
		default:
			log.Printf("⚠️ Client buffer full, dropping message for: %s", userID)
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// GetConnectedClientIDs returns a list of all connected client IDs
func (h *Hub) GetConnectedClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}
