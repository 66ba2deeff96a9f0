package chat

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum message size allowed from peer.
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub    *Hub
	typing *TypingCoordinator
	conn   *websocket.Conn
	send   chan []byte

	userID int
	connID string

	// sendMu serializes sends on the channel with its close. Closing a
	// channel that another goroutine is sending on panics, so every send
	// and the close itself must hold the lock.
	sendMu sync.Mutex
	closed bool
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// trySend enqueues payload without blocking. It reports false when the
// connection is gone or the buffer is full.
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// readPump pumps inbound frames from the websocket connection to the typing
// coordinator. Everything else a client does goes through the REST API.
func (c *Client) readPump() {
	defer func() {
		c.typing.Disconnect(c.userID, c.connID)
		c.hub.Unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			break
		}

		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			continue
		}

		switch evt.Event {
		case EventTyping, EventStopTyping:
			var req TypingRequest
			if err := json.Unmarshal(evt.Data, &req); err != nil || req.RecipientID == 0 {
				continue
			}
			if evt.Event == EventTyping {
				c.typing.Start(c.userID, req.RecipientID, c.connID)
			} else {
				c.typing.Stop(c.userID, req.RecipientID, c.connID)
			}
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
