package chat

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"talkwire/internal/presence"
)

// Pusher delivers a realtime event to a single user. It reports whether a
// registered connection existed and the write was enqueued — not whether the
// client actually received the frame.
type Pusher interface {
	Push(userID int, event string, data any) bool
}

// Hub owns the connection lifecycle: it binds users to connections in the
// presence registry, re-broadcasts the online set on every change, and routes
// events to the right connection.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	presence presence.Registry

	mu      sync.RWMutex
	clients map[int]*Client
}

func NewHub(registry presence.Registry) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		presence:   registry,
		clients:    make(map[int]*Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			// Last connect wins: a second connection for the same user
			// silently replaces the first.
			if old, ok := h.clients[client.userID]; ok && old != client {
				old.closeSend()
			}
			h.clients[client.userID] = client
			h.mu.Unlock()

			if err := h.presence.Register(context.Background(), client.userID, client.connID); err != nil {
				log.Printf("presence register failed for user %d: %v", client.userID, err)
			}
			h.broadcastOnlineUsers()

		case client := <-h.Unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				client.closeSend()
			}
			h.mu.Unlock()

			// Unregister is conditional on the connection ID, so a stale
			// disconnect from a replaced connection is a no-op here.
			if err := h.presence.Unregister(context.Background(), client.userID, client.connID); err != nil {
				log.Printf("presence unregister failed for user %d: %v", client.userID, err)
			}
			h.broadcastOnlineUsers()
		}
	}
}

// Push resolves userID through the presence registry and enqueues the event
// on its connection. Absent recipient is not an error: the caller degrades to
// persisted-only delivery.
func (h *Hub) Push(userID int, event string, data any) bool {
	if _, ok, err := h.presence.Lookup(context.Background(), userID); err != nil || !ok {
		if err != nil {
			log.Printf("presence lookup failed for user %d: %v", userID, err)
		}
		return false
	}

	h.mu.RLock()
	client := h.clients[userID]
	h.mu.RUnlock()
	if client == nil {
		return false
	}

	evt, err := newEvent(event, data)
	if err != nil {
		log.Printf("failed to encode %s event: %v", event, err)
		return false
	}
	payload, _ := json.Marshal(evt)

	return client.trySend(payload)
}

// broadcastOnlineUsers pushes the current presence snapshot to every
// connection, so clients can render online badges.
func (h *Hub) broadcastOnlineUsers() {
	ids, err := h.presence.Snapshot(context.Background())
	if err != nil {
		log.Printf("presence snapshot failed: %v", err)
		return
	}

	evt, err := newEvent(EventOnlineUsers, ids)
	if err != nil {
		return
	}
	payload, _ := json.Marshal(evt)

	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, client := range h.clients {
		if !client.trySend(payload) {
			// Slow consumer: drop the connection rather than block the hub.
			client.closeSend()
			delete(h.clients, userID)
		}
	}
}
