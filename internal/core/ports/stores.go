package ports

import (
	"context"

	"github.com/hireway/session-gateway/internal/core/domain"
)

// MessageRepository is the local chat-message cache. It lets unread counts
// survive a gateway restart; the backend's chatHistory payload remains
// authoritative once a room is joined.
type MessageRepository interface {
	Insert(ctx context.Context, msg domain.ChatMessage) error
	InsertBatch(ctx context.Context, msgs []domain.ChatMessage) error
	// CountUnread counts cached messages in a thread addressed to recipientID
	// and not yet read.
	CountUnread(ctx context.Context, threadID, recipientID string) (int64, error)
}

// RedirectStore remembers where to send the user after login. Entries are
// short-lived and consumed on read.
type RedirectStore interface {
	Save(ctx context.Context, path string) error
	// Consume returns the remembered path and deletes it. Returns "" when
	// nothing is stored.
	Consume(ctx context.Context) (string, error)
}

// DedupChecker provides idempotency checks for realtime message deliveries.
// A reconnect replays history; without dedup the same message would be
// counted twice.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, messageID string) (bool, error)
	Mark(ctx context.Context, messageID string) error
}
