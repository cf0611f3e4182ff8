package ports

import (
	"context"
	"encoding/json"

	"github.com/hireway/session-gateway/internal/core/domain"
)

// Realtime event names shared with the marketplace chat server.
const (
	EventChatHistory = "chatHistory"
	EventNewMessage  = "newMessage"
	EventJoinChat    = "joinChat"
)

// JoinChatPayload is emitted once per accepted application thread.
type JoinChatPayload struct {
	JobApplicationID string `json:"jobApplicationId"`
}

// RealtimeTransport is a single bidirectional connection to the chat server.
// Handlers must be registered before Dial; the transport owns reconnection
// (with its own backoff) and reports every state change through the status
// callback; the application layer only mirrors it.
type RealtimeTransport interface {
	OnEvent(name string, fn func(data json.RawMessage))
	OnStatus(fn func(status domain.ConnectionStatus, err error))
	Dial(ctx context.Context, token string) error
	// Emit sends one named event. Returns domain.ErrNotConnected while the
	// transport is down.
	Emit(event string, payload any) error
	Close() error
}

// MessageEventKind discriminates the two inbound message-bearing events.
type MessageEventKind string

const (
	MessageEventHistory MessageEventKind = "history"
	MessageEventNew     MessageEventKind = "message"
)

// MessageEvent is the DTO handed from the transport callbacks to the
// notification pipeline. ThreadID is the shard key: events for the same
// conversation are processed in order.
type MessageEvent struct {
	Kind     MessageEventKind
	ThreadID string
	Message  domain.ChatMessage
	History  []domain.ChatMessage
}

// MessagePipeline decouples event intake from processing. The production
// implementation is the sharded dispatcher; tests enqueue synchronously.
type MessagePipeline interface {
	Enqueue(event MessageEvent)
}

// NotificationService processes one inbound message event: deduplication,
// persistence, then delivery to the unread sink.
type NotificationService interface {
	Process(ctx context.Context, event MessageEvent) error
}

// UnreadSink receives deduplicated, persisted message events. Implemented by
// the realtime client, which owns the per-thread unread counters.
type UnreadSink interface {
	// ApplyHistory replaces the thread's counter contribution with the unread
	// messages found in the join-time history payload.
	ApplyHistory(threadID string, history []domain.ChatMessage)
	// ApplyNew accounts for one live message.
	ApplyNew(msg domain.ChatMessage)
}
