package chat

import (
	"context"
	"errors"
)

// ErrRecipientNotFound reports that a conversation participant does not
// exist. The Postgres store derives it from the users foreign key.
var ErrRecipientNotFound = errors.New("recipient not found")

// Store is the persistence surface the delivery pipeline needs. The Postgres
// implementation lives in repository.go; tests supply an in-memory one.
type Store interface {
	// FindOrCreateConversation resolves the conversation for the unordered
	// {userA, userB} pair, creating it on first use. Returns
	// ErrRecipientNotFound when either participant does not exist.
	FindOrCreateConversation(ctx context.Context, userA, userB int) (int, error)

	// FindConversation resolves an existing conversation without creating one.
	FindConversation(ctx context.Context, userA, userB int) (int, bool, error)

	// InsertMessage appends m to its conversation with status "sent" and
	// fills in the generated ID and CreatedAt.
	InsertMessage(ctx context.Context, m *Message) error

	// Messages returns the conversation history in insertion order,
	// reactions included.
	Messages(ctx context.Context, conversationID int) ([]*Message, error)

	// GetMessage loads a single message with its reactions.
	GetMessage(ctx context.Context, id int) (*Message, bool, error)

	// MarkDelivered moves a message from "sent" to "delivered". It reports
	// whether the transition happened; a message already delivered or read
	// is left alone.
	MarkDelivered(ctx context.Context, messageID int) (bool, error)

	// MarkRead marks every message in the conversation addressed to readerID
	// that is not yet read. Returns the number of messages transitioned, so
	// re-reading an already-read conversation is an observable no-op.
	MarkRead(ctx context.Context, conversationID, readerID int) (int, error)

	// ToggleReaction adds the (user, emoji) reaction if absent, removes it if
	// present. Returns true when the toggle added the reaction.
	ToggleReaction(ctx context.Context, messageID, userID int, emoji string) (bool, error)

	// UpdateBody overwrites the message body and stamps it edited, returning
	// the updated message.
	UpdateBody(ctx context.Context, messageID int, body string) (*Message, error)
}
