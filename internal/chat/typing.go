package chat

import (
	"sync"
	"time"
)

type typingKey struct {
	senderID    int
	recipientID int
}

type typingEntry struct {
	timer  *time.Timer
	connID string
}

// TypingCoordinator relays ephemeral typing signals between peers. Entries
// expire server-side after a TTL so a sender that vanishes mid-type does not
// leave the recipient staring at a stuck "typing…" indicator.
//
// Entries remember the connection that created them: a replaced connection
// disconnecting late must not clear state the replacement just set up.
type TypingCoordinator struct {
	pusher Pusher
	ttl    time.Duration

	mu      sync.Mutex
	entries map[typingKey]*typingEntry
}

func NewTypingCoordinator(pusher Pusher, ttl time.Duration) *TypingCoordinator {
	return &TypingCoordinator{
		pusher:  pusher,
		ttl:     ttl,
		entries: make(map[typingKey]*typingEntry),
	}
}

// Start relays a typing signal and arms (or re-arms) its expiry timer.
// An offline recipient makes this a silent no-op.
func (t *TypingCoordinator) Start(senderID, recipientID int, connID string) {
	t.pusher.Push(recipientID, EventUserTyping, TypingEvent{SenderID: senderID})

	key := typingKey{senderID: senderID, recipientID: recipientID}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		e.timer.Reset(t.ttl)
		e.connID = connID
		return
	}
	t.entries[key] = &typingEntry{
		timer:  time.AfterFunc(t.ttl, func() { t.expire(key) }),
		connID: connID,
	}
}

// Stop clears the typing state and tells the recipient the sender stopped.
// A stop from a connection that no longer owns the entry is ignored.
func (t *TypingCoordinator) Stop(senderID, recipientID int, connID string) {
	key := typingKey{senderID: senderID, recipientID: recipientID}
	t.mu.Lock()
	if e, ok := t.entries[key]; ok {
		if e.connID != connID {
			t.mu.Unlock()
			return
		}
		e.timer.Stop()
		delete(t.entries, key)
	}
	t.mu.Unlock()

	t.pusher.Push(recipientID, EventUserStoppedTyping, TypingEvent{SenderID: senderID})
}

// Disconnect clears every typing entry connID holds for the user, notifying
// the recipients. Called when the sender's connection goes away.
func (t *TypingCoordinator) Disconnect(senderID int, connID string) {
	t.mu.Lock()
	var expired []typingKey
	for key, e := range t.entries {
		if key.senderID == senderID && e.connID == connID {
			e.timer.Stop()
			delete(t.entries, key)
			expired = append(expired, key)
		}
	}
	t.mu.Unlock()

	for _, key := range expired {
		t.pusher.Push(key.recipientID, EventUserStoppedTyping, TypingEvent{SenderID: senderID})
	}
}

func (t *TypingCoordinator) expire(key typingKey) {
	t.mu.Lock()
	if _, ok := t.entries[key]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.entries, key)
	t.mu.Unlock()

	t.pusher.Push(key.recipientID, EventUserStoppedTyping, TypingEvent{SenderID: key.senderID})
}
