package chat

import "time"

// Message lifecycle statuses. Transitions only move forward:
// sent -> delivered -> read.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Message body kinds accepted on send.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeFile  = "file"
	TypeVideo = "video"
	TypeAudio = "audio"
)

type Message struct {
	ID             int        `json:"id"`
	ConversationID int        `json:"conversationId"`
	SenderID       int        `json:"senderId"`
	ReceiverID     int        `json:"receiverId"`
	Body           string     `json:"message"`
	Type           string     `json:"messageType"`
	FileURL        string     `json:"fileUrl,omitempty"`
	FileName       string     `json:"fileName,omitempty"`
	FileSize       int64      `json:"fileSize,omitempty"`
	Status         string     `json:"status"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	IsEdited       bool       `json:"isEdited,omitempty"`
	EditedAt       *time.Time `json:"editedAt,omitempty"`
	ReplyTo        *int       `json:"replyTo,omitempty"`
	Reactions      []Reaction `json:"reactions"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Reaction is a single (user, emoji) mark on a message. The store enforces
// uniqueness of (message, user, emoji), which is what makes toggling atomic.
type Reaction struct {
	ID        int       `json:"id"`
	MessageID int       `json:"messageId"`
	UserID    int       `json:"userId"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsParticipant reports whether userID is one of the two sides of the message.
func (m *Message) IsParticipant(userID int) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

func validType(t string) bool {
	switch t {
	case TypeText, TypeImage, TypeFile, TypeVideo, TypeAudio:
		return true
	}
	return false
}

// pairKey normalizes the unordered {a, b} conversation pair.
func pairKey(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
