package models

import "time"

// Sender tags derived on the client.
const (
	SenderMe   = "me"
	SenderThem = "them"
)

// Message delivery states derived on the client.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

type OtherParty struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Name      string     `json:"name"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	IsBlocked bool       `json:"is_blocked"`
}

type Conversation struct {
	ID                 string     `json:"id"`
	OtherParty         OtherParty `json:"other_party"`
	LastMessagePreview string     `json:"last_message_preview,omitempty"`
	UnreadCount        int        `json:"unread_count,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	IsRead         bool      `json:"is_read"`

	// Derived on the client; never sent.
	Sender string `json:"sender,omitempty"`
	Status string `json:"status,omitempty"`
}
