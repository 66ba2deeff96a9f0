package chat

import (
	"context"
	"errors"

	"talkwire/pkg/apperr"
)

// Service is the message delivery pipeline: it persists messages, attempts
// immediate push to an online recipient, and drives the status lifecycle.
type Service struct {
	store  Store
	pusher Pusher
}

func NewService(store Store, pusher Pusher) *Service {
	return &Service{store: store, pusher: pusher}
}

// SendInput carries the client-supplied portion of a new message.
type SendInput struct {
	Body     string `json:"message"`
	Type     string `json:"messageType"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	ReplyTo  *int   `json:"replyTo"`
}

// Send persists a message in the {sender, recipient} conversation and, if the
// recipient holds a registered connection, pushes it and marks it delivered.
// An offline recipient leaves the message at "sent" for the REST fetch path.
func (s *Service) Send(ctx context.Context, senderID, recipientID int, in SendInput) (*Message, error) {
	if in.Type == "" {
		in.Type = TypeText
	}
	if !validType(in.Type) {
		return nil, apperr.InvalidArg("unknown message type")
	}
	if in.Body == "" && in.FileURL == "" {
		return nil, apperr.InvalidArg("message body is required")
	}
	if in.ReplyTo != nil {
		if _, ok, err := s.store.GetMessage(ctx, *in.ReplyTo); err != nil {
			return nil, apperr.Internal("failed to load replied-to message", err)
		} else if !ok {
			return nil, apperr.NotFound("replied-to message not found")
		}
	}

	conversationID, err := s.store.FindOrCreateConversation(ctx, senderID, recipientID)
	if errors.Is(err, ErrRecipientNotFound) {
		return nil, apperr.NotFound("recipient not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to resolve conversation", err)
	}

	m := &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     recipientID,
		Body:           in.Body,
		Type:           in.Type,
		FileURL:        in.FileURL,
		FileName:       in.FileName,
		FileSize:       in.FileSize,
		ReplyTo:        in.ReplyTo,
	}
	if err := s.store.InsertMessage(ctx, m); err != nil {
		return nil, apperr.Internal("failed to save message", err)
	}

	if s.pusher.Push(recipientID, EventNewMessage, m) {
		// "delivered" means a push was attempted while a connection was
		// registered; there is no client-side acknowledgment.
		if ok, err := s.store.MarkDelivered(ctx, m.ID); err == nil && ok {
			m.Status = StatusDelivered
		}
	}

	return m, nil
}

// Conversation returns the full history with peerID in insertion order and,
// as a side effect, marks everything addressed to userID as read. The peer is
// notified over their connection if they are online.
func (s *Service) Conversation(ctx context.Context, userID, peerID int) ([]*Message, error) {
	conversationID, ok, err := s.store.FindConversation(ctx, userID, peerID)
	if err != nil {
		return nil, apperr.Internal("failed to resolve conversation", err)
	}
	if !ok {
		return []*Message{}, nil
	}

	if err := s.markRead(ctx, conversationID, userID, peerID); err != nil {
		return nil, err
	}

	messages, err := s.store.Messages(ctx, conversationID)
	if err != nil {
		return nil, apperr.Internal("failed to load messages", err)
	}
	return messages, nil
}

// MarkRead marks the conversation with peerID as read without fetching it.
func (s *Service) MarkRead(ctx context.Context, userID, peerID int) error {
	conversationID, ok, err := s.store.FindConversation(ctx, userID, peerID)
	if err != nil {
		return apperr.Internal("failed to resolve conversation", err)
	}
	if !ok {
		return nil
	}
	return s.markRead(ctx, conversationID, userID, peerID)
}

func (s *Service) markRead(ctx context.Context, conversationID, readerID, peerID int) error {
	n, err := s.store.MarkRead(ctx, conversationID, readerID)
	if err != nil {
		return apperr.Internal("failed to mark messages read", err)
	}
	if n > 0 {
		s.pusher.Push(peerID, EventMessagesRead, ReadEvent{ReadBy: readerID})
	}
	return nil
}

// ToggleReaction adds or removes the (user, emoji) reaction on a message and
// fans the delta out to both participants.
func (s *Service) ToggleReaction(ctx context.Context, messageID, userID int, emoji string) (*ReactionEvent, error) {
	if emoji == "" {
		return nil, apperr.InvalidArg("emoji is required")
	}

	m, ok, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, apperr.Internal("failed to load message", err)
	}
	if !ok {
		return nil, apperr.NotFound("message not found")
	}
	if !m.IsParticipant(userID) {
		return nil, apperr.Forbidden("not a participant of this conversation")
	}

	added, err := s.store.ToggleReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, apperr.Internal("failed to toggle reaction", err)
	}

	delta := &ReactionEvent{MessageID: messageID, UserID: userID, Emoji: emoji, IsAdded: added}
	s.pusher.Push(m.SenderID, EventMessageReaction, delta)
	s.pusher.Push(m.ReceiverID, EventMessageReaction, delta)
	return delta, nil
}

// Edit overwrites a message body. Only the original sender may edit; the
// previous body is not retained.
func (s *Service) Edit(ctx context.Context, messageID, userID int, body string) (*Message, error) {
	if body == "" {
		return nil, apperr.InvalidArg("message body is required")
	}

	m, ok, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, apperr.Internal("failed to load message", err)
	}
	if !ok {
		return nil, apperr.NotFound("message not found")
	}
	if m.SenderID != userID {
		return nil, apperr.Forbidden("only the sender can edit a message")
	}

	updated, err := s.store.UpdateBody(ctx, messageID, body)
	if err != nil {
		return nil, apperr.Internal("failed to edit message", err)
	}

	s.pusher.Push(updated.SenderID, EventMessageEdited, updated)
	s.pusher.Push(updated.ReceiverID, EventMessageEdited, updated)
	return updated, nil
}
