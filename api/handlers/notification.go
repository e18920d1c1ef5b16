package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-messaging-api/api"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

// writeWait bounds a single frame write to a slow client
const writeWait = 10 * time.Second

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the cors handler in main
	},
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // one writer per connection
}

func (c *client) write(evt models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(evt)
}

// NotificationHub keeps the open sockets of every viewer (viewerId -> conns)
// and pushes messaging events to them
type NotificationHub struct {
	clients map[string]map[*client]struct{}
	mutex   sync.Mutex
}

// NewNotificationHub creates an empty hub
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{clients: make(map[string]map[*client]struct{})}
}

// Connected returns how many sockets a viewer has open
func (h *NotificationHub) Connected(viewerID string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients[viewerID])
}

func (h *NotificationHub) add(viewerID string, c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.clients[viewerID] == nil {
		h.clients[viewerID] = make(map[*client]struct{})
	}
	h.clients[viewerID][c] = struct{}{}
}

func (h *NotificationHub) remove(viewerID string, c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	conns, ok := h.clients[viewerID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, viewerID)
	}
	_ = c.conn.Close()
}

// Publish sends an event to every socket the viewer has open. Sockets that
// fail to take the frame are dropped.
func (h *NotificationHub) Publish(viewerID string, evt models.Event) {
	h.mutex.Lock()
	targets := make([]*client, 0, len(h.clients[viewerID]))
	for c := range h.clients[viewerID] {
		targets = append(targets, c)
	}
	h.mutex.Unlock()

	for _, c := range targets {
		if err := c.write(evt); err != nil {
			zap.S().Warnw("failed to push event",
				"viewer", viewerID,
				"event", evt.Event,
				"error", err,
			)
			h.remove(viewerID, c)
		}
	}
}

// HandleMessagesWebSocket upgrades an authenticated request and streams the
// viewer's messaging events until the client goes away
func (h *NotificationHub) HandleMessagesWebSocket(w http.ResponseWriter, r *http.Request) {
	viewer, ok := api.ViewerFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade error", "viewer", viewer.ID, "error", err)
		return
	}

	c := &client{conn: conn}
	h.add(viewer.ID, c)
	zap.S().Infow("viewer connected to /ws/messages", "viewer", viewer.ID)

	// the stream is push only; reading just notices the close
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.remove(viewer.ID, c)
	zap.S().Infow("viewer disconnected from /ws/messages", "viewer", viewer.ID)
}
