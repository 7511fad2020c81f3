package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

const (
	EventStockUpdate = "stock_update"
	EventOrderUpdate = "order_update"
)

// Event is the envelope every websocket message is sent in.
type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
	// Owner limits delivery to that user's connections and to staff.
	// Empty means every client.
	Owner string `json:"-"`
}

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one authenticated connection.
type Client struct {
	Conn   Conn
	UserID string
	// Staff clients see every order event.
	Staff bool
}

// Receives reports whether an event addressed to owner goes to c.
func (c *Client) Receives(owner string) bool {
	return owner == "" || c.Staff || c.UserID == owner
}

type message struct {
	owner   string
	payload []byte
}

type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan message
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan message, 256),
		log:        log,
	}
}

// Publish queues an event for its audience. It never blocks the caller; when
// the queue is full the event is dropped and logged.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws: marshal event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- message{owner: event.Owner, payload: msg}:
	default:
		h.log.Warn("ws: broadcast queue full, dropping event",
			zap.String("type", event.Type), zap.String("action", event.Action))
	}
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("ws client connected",
				zap.String("user_id", client.UserID),
				zap.Int("clients", h.ClientCount()))

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.Broadcast:
			h.mutex.Lock()
			for client := range h.Clients {
				if !client.Receives(msg.owner) {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					client.Conn.Close()
					delete(h.Clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}
