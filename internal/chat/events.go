package chat

import "encoding/json"

// Event names on the websocket surface.
const (
	EventOnlineUsers       = "getOnlineUsers"
	EventTyping            = "typing"
	EventStopTyping        = "stopTyping"
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventNewMessage        = "newMessage"
	EventMessagesRead      = "messagesRead"
	EventMessageReaction   = "messageReaction"
	EventMessageEdited     = "messageEdited"
)

// Event is the envelope every frame on the websocket uses, in both directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newEvent(name string, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{Event: name, Data: raw}, nil
}

// TypingRequest is what a client sends with typing / stopTyping.
type TypingRequest struct {
	RecipientID int `json:"recipientId"`
}

// TypingEvent is relayed to the recipient as userTyping / userStoppedTyping.
type TypingEvent struct {
	SenderID int `json:"senderId"`
}

// ReadEvent tells a sender that the peer has read their messages.
type ReadEvent struct {
	ReadBy int `json:"readBy"`
}

// ReactionEvent describes a single toggle delta, not the full reaction list.
type ReactionEvent struct {
	MessageID int    `json:"messageId"`
	UserID    int    `json:"userId"`
	Emoji     string `json:"emoji"`
	IsAdded   bool   `json:"isAdded"`
}
