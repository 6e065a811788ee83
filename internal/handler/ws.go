package handler

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"bookingwatch/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Same-origin policy is enforced upstream by the CORS layer
	},
}

// subscriber is one WebSocket client attached to a session's event stream.
type subscriber struct {
	send chan service.Event
}

// Hub routes session events to their WebSocket subscribers. It implements
// service.Sink; delivery is non-blocking, a subscriber that cannot keep up
// loses events rather than stalling the polling goroutine.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
}

// NewHub creates a new event hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[*subscriber]struct{})}
}

// Publish delivers an event to every subscriber of its session.
func (h *Hub) Publish(_ context.Context, event service.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[event.SessionID] {
		select {
		case sub.send <- event:
		default:
			// Slow consumer; drop instead of blocking the session.
		}
	}
}

// Subscribe attaches a new subscriber to a session's stream.
func (h *Hub) Subscribe(sessionID string) *subscriber {
	sub := &subscriber{send: make(chan service.Event, 16)}

	h.mu.Lock()
	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*subscriber]struct{})
	}
	h.subscribers[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Unsubscribe detaches a subscriber.
func (h *Hub) Unsubscribe(sessionID string, sub *subscriber) {
	h.mu.Lock()
	if subs, ok := h.subscribers[sessionID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, sessionID)
		}
	}
	h.mu.Unlock()
}

// WSHandler handles WebSocket event stream requests.
type WSHandler struct {
	hub     *Hub
	manager *service.Manager
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *Hub, manager *service.Manager) *WSHandler {
	return &WSHandler{hub: hub, manager: manager}
}

// Stream handles GET /v1/sessions/:id/events. Upgrades to WebSocket and
// forwards the session's events until the client disconnects or the
// session ends.
func (h *WSHandler) Stream(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.manager.Get(sessionID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade for session %s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(sessionID)
	defer h.hub.Unsubscribe(sessionID, sub)

	// Reader detects client disconnects; inbound frames carry nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case event := <-sub.send:
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("ws send for session %s: %v", sessionID, err)
				return
			}
			if event.Type == service.EventSessionEnded {
				return
			}
		}
	}
}
