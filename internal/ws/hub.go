package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

const (
	EventPriceCSVChanged      = "price_csv_changed"
	EventMasterImportProgress = "master_import_progress"
	EventMasterChanged        = "master_changed"
	EventInventoryChanged     = "inventory_changed"
	EventSnapshotChanged      = "snapshot_changed"
	EventUserStatus           = "user_status_update"
)

// Event is the JSON frame pushed to clients. An empty UserID goes to every
// connection; otherwise only that user's connections receive it.
type Event struct {
	Type    string    `json:"type"`
	UserID  string    `json:"user_id,omitempty"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

type Client struct {
	Conn   *websocket.Conn
	UserID string
}

type message struct {
	userID string
	data   []byte
}

type Hub struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.Register:
			h.mutex.Lock()
			h.clients[c] = true
			h.mutex.Unlock()
			h.log.Debug("ws client connected", zap.String("user_id", c.UserID))

		case c := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.Conn.Close()
			}
			h.mutex.Unlock()

		case m := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients {
				if m.userID != "" && c.UserID != m.userID {
					continue
				}
				if err := c.Conn.WriteMessage(websocket.TextMessage, m.data); err != nil {
					c.Conn.Close()
					delete(h.clients, c)
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			return
		}
	}
}

// Stop ends Run. It must be called at most once.
func (h *Hub) Stop() {
	close(h.done)
}

// Join registers a client. It returns false once the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters a client without blocking on a stopped hub.
func (h *Hub) Leave(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
		c.Conn.Close()
	}
}

// Publish queues an event. It never blocks: when the queue is full the event
// is dropped and logged. A nil hub ignores events.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	if e.SentAt.IsZero() {
		e.SentAt = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Warn("ws event not encodable", zap.String("type", e.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message{userID: e.UserID, data: data}:
	default:
		h.log.Warn("ws queue full, event dropped", zap.String("type", e.Type))
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}
