package domain

import "time"

// ConnectionStatus mirrors the realtime transport state for UI consumers.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusReconnecting ConnectionStatus = "reconnecting"
)

// ChatMessage is the wire shape shared by the chatHistory and newMessage
// realtime events and by the message cache.
type ChatMessage struct {
	ID               string    `json:"id" bson:"_id"`
	JobApplicationID string    `json:"job_application_id" bson:"job_application_id"`
	SenderID         string    `json:"sender_id" bson:"sender_id"`
	RecipientID      string    `json:"recipient_id" bson:"recipient_id"`
	Content          string    `json:"content" bson:"content"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	IsRead           bool      `json:"is_read" bson:"is_read"`
}

// UnreadFor reports whether the message counts toward userID's unread badge.
func (m ChatMessage) UnreadFor(userID string) bool {
	return m.RecipientID == userID && !m.IsRead
}

// RealtimeState is the atomically-read view of the notification client.
type RealtimeState struct {
	Status      ConnectionStatus `json:"status"`
	UnreadCount int              `json:"unread_count"`
	Err         string           `json:"error,omitempty"`
}
