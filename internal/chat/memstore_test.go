package chat

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store used by the tests in this package.
type memStore struct {
	mu        sync.Mutex
	nextConv  int
	nextMsg   int
	nextReact int
	convs     map[[2]int]int
	messages  map[int]*Message
	reactions map[int][]Reaction

	// missingUsers marks IDs whose referential checks fail, mirroring the
	// users foreign key in the real store. Empty means everyone exists.
	missingUsers map[int]bool
}

func newMemStore() *memStore {
	return &memStore{
		convs:     make(map[[2]int]int),
		messages:  make(map[int]*Message),
		reactions: make(map[int][]Reaction),
	}
}

func (s *memStore) FindOrCreateConversation(_ context.Context, userA, userB int) (int, error) {
	a, b := pairKey(userA, userB)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missingUsers[userA] || s.missingUsers[userB] {
		return 0, ErrRecipientNotFound
	}
	if id, ok := s.convs[[2]int{a, b}]; ok {
		return id, nil
	}
	s.nextConv++
	s.convs[[2]int{a, b}] = s.nextConv
	return s.nextConv, nil
}

func (s *memStore) FindConversation(_ context.Context, userA, userB int) (int, bool, error) {
	a, b := pairKey(userA, userB)
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.convs[[2]int{a, b}]
	return id, ok, nil
}

func (s *memStore) InsertMessage(_ context.Context, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsg++
	m.ID = s.nextMsg
	m.Status = StatusSent
	m.CreatedAt = time.Now()
	stored := *m
	s.messages[m.ID] = &stored
	return nil
}

func (s *memStore) Messages(_ context.Context, conversationID int) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for id, m := range s.messages {
		if m.ConversationID == conversationID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]*Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.copyMessage(id))
	}
	return out, nil
}

func (s *memStore) GetMessage(_ context.Context, id int) (*Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return nil, false, nil
	}
	return s.copyMessage(id), true, nil
}

func (s *memStore) MarkDelivered(_ context.Context, messageID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok || m.Status != StatusSent {
		return false, nil
	}
	m.Status = StatusDelivered
	return true, nil
}

func (s *memStore) MarkRead(_ context.Context, conversationID, readerID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := time.Now()
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.ReceiverID == readerID && m.Status != StatusRead {
			m.Status = StatusRead
			m.ReadAt = &now
			n++
		}
	}
	return n, nil
}

func (s *memStore) ToggleReaction(_ context.Context, messageID, userID int, emoji string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.reactions[messageID]
	for i, re := range existing {
		if re.UserID == userID && re.Emoji == emoji {
			s.reactions[messageID] = append(existing[:i:i], existing[i+1:]...)
			return false, nil
		}
	}
	s.nextReact++
	s.reactions[messageID] = append(existing, Reaction{
		ID:        s.nextReact,
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	})
	return true, nil
}

func (s *memStore) UpdateBody(_ context.Context, messageID int, body string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.messages[messageID]
	now := time.Now()
	m.Body = body
	m.IsEdited = true
	m.EditedAt = &now
	return s.copyMessage(messageID), nil
}

// copyMessage returns a snapshot with reactions attached. Callers hold s.mu.
func (s *memStore) copyMessage(id int) *Message {
	m := *s.messages[id]
	m.Reactions = append([]Reaction(nil), s.reactions[id]...)
	return &m
}

type pushedEvent struct {
	userID int
	event  string
	data   any
}

// fakePusher records pushes and reports success for "online" users only.
type fakePusher struct {
	mu     sync.Mutex
	online map[int]bool
	events []pushedEvent
}

func newFakePusher(onlineUsers ...int) *fakePusher {
	online := make(map[int]bool)
	for _, id := range onlineUsers {
		online[id] = true
	}
	return &fakePusher{online: online}
}

func (p *fakePusher) Push(userID int, event string, data any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.online[userID] {
		return false
	}
	p.events = append(p.events, pushedEvent{userID: userID, event: event, data: data})
	return true
}

func (p *fakePusher) pushed(userID int, event string) []pushedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pushedEvent
	for _, e := range p.events {
		if e.userID == userID && e.event == event {
			out = append(out, e)
		}
	}
	return out
}
