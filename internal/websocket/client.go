package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"fleetpulse-backend/internal/tracking"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 2048
)

// Client represents a WebSocket client connection
type Client struct {
	UserID   string
	UserRole string // "driver" or "manager"
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte

	topicsMu sync.RWMutex
	topics   map[string]bool
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type      string   `json:"type"`
	Timestamp string   `json:"timestamp"`
	Topics    []string `json:"topics,omitempty"`
}

// NewClient creates a new WebSocket client. A driver is implicitly subscribed
// to their own topic so their app mirrors what dispatchers see.
func NewClient(userID string, userRole string, conn *websocket.Conn, hub *Hub) *Client {
	c := &Client{
		UserID:   userID,
		UserRole: userRole,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, 256),
		topics:   make(map[string]bool),
	}
	if userRole == "driver" {
		c.topics[tracking.TopicForDriver(userID)] = true
	}
	return c
}

func (c *Client) subscribed(topic string) bool {
	c.topicsMu.RLock()
	defer c.topicsMu.RUnlock()
	return c.topics[topic]
}

func (c *Client) subscribe(topics []string) {
	c.topicsMu.Lock()
	defer c.topicsMu.Unlock()
	for _, t := range topics {
		c.topics[t] = true
	}
}

func (c *Client) unsubscribe(topics []string) {
	c.topicsMu.Lock()
	defer c.topicsMu.Unlock()
	for _, t := range topics {
		delete(c.topics, t)
	}
}

// ReadPump pumps control messages from the WebSocket connection. Location
// samples do not come in this way - ingestion is the REST endpoint, so the
// realtime channel stays read-mostly and a flaky socket cannot lose pings.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Invalid message format: %v", err)
			continue
		}

		switch msg.Type {
		case "ping":
			response := map[string]interface{}{
				"type":      "pong",
				"timestamp": time.Now().Format(time.RFC3339),
			}
			responseData, _ := json.Marshal(response)
			select {
			case c.send <- responseData:
			default:
			}

		case "subscribe":
			c.subscribe(msg.Topics)
			log.Printf("📡 Client %s subscribed to %v", c.UserID, msg.Topics)

		case "unsubscribe":
			c.unsubscribe(msg.Topics)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
