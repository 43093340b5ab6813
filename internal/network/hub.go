// Package network streams live game messages to websocket subscribers
package network

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub fans out messages to the clients subscribed to each game
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Client]bool
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewHub initializes an empty hub
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
}

// Publish serializes msg and queues it for every subscriber of gameID. Slow
// clients whose buffer is full are dropped.
func (h *Hub) Publish(gameID string, msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).WithField("game_id", gameID).Error("Failed to serialize live message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[gameID] {
		select {
		case c.send <- payload:
		default:
			h.removeLocked(c)
			h.log.WithField("game_id", gameID).Warn("Dropped slow websocket client")
		}
	}
}

// Subscribers returns the number of clients watching gameID
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}

// ServeWS upgrades the request and subscribes the connection to gameID.
// Callers check access to the game before calling it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := newClient(h, conn, gameID)
	h.register(c)
	h.log.WithField("game_id", gameID).Debug("Websocket client connected")

	go c.writePump()
	go c.readPump()
}

// CloseGame disconnects every subscriber of gameID
func (h *Hub) CloseGame(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[gameID] {
		h.removeLocked(c)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.gameID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[c.gameID] = room
	}
	room[c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	room := h.rooms[c.gameID]
	if !room[c] {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.gameID)
	}
}
