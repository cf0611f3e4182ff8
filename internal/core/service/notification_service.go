package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/api/metrics"
	"github.com/hireway/session-gateway/internal/core/ports"
)

type notificationService struct {
	repo  ports.MessageRepository
	dedup ports.DedupChecker
	sink  ports.UnreadSink
	log   zerolog.Logger
}

// NewNotificationService returns a NotificationService that deduplicates,
// caches, and then forwards inbound realtime messages to the unread sink.
func NewNotificationService(
	repo ports.MessageRepository,
	dedup ports.DedupChecker,
	sink ports.UnreadSink,
	log zerolog.Logger,
) ports.NotificationService {
	return &notificationService{repo: repo, dedup: dedup, sink: sink, log: log}
}

// Process handles a single message event from the realtime transport.
func (s *notificationService) Process(ctx context.Context, event ports.MessageEvent) error {
	switch event.Kind {
	case ports.MessageEventHistory:
		return s.processHistory(ctx, event)
	case ports.MessageEventNew:
		return s.processNew(ctx, event)
	default:
		return fmt.Errorf("process message event: unknown kind %q", event.Kind)
	}
}

// processHistory handles the join-time backlog of one room. History is
// authoritative for the room's unread contribution, so it always reaches the
// sink; the cache write and dedup marks are best-effort.
func (s *notificationService) processHistory(ctx context.Context, event ports.MessageEvent) error {
	if err := s.repo.InsertBatch(ctx, event.History); err != nil {
		s.log.Warn().Err(err).Str("thread", event.ThreadID).Msg("history cache write failed")
	}
	for _, msg := range event.History {
		if err := s.dedup.Mark(ctx, msg.ID); err != nil {
			s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to set dedup key")
		}
	}

	metrics.MessagesReceivedTotal.WithLabelValues("history").Add(float64(len(event.History)))
	s.sink.ApplyHistory(event.ThreadID, event.History)

	s.log.Debug().
		Str("thread", event.ThreadID).
		Int("messages", len(event.History)).
		Msg("history processed")
	return nil
}

// processNew handles one live message. A reconnect can replay messages the
// history already delivered; duplicates are silently skipped so the counter
// never double-counts.
func (s *notificationService) processNew(ctx context.Context, event ports.MessageEvent) error {
	msg := event.Message

	isDup, err := s.dedup.IsDuplicate(ctx, msg.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.MessagesDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("message_id", msg.ID).Msg("duplicate message skipped")
		return nil
	}
	metrics.MessagesDedupTotal.WithLabelValues("miss").Inc()

	// Mark before applying so a racing replay cannot slip through.
	if markErr := s.dedup.Mark(ctx, msg.ID); markErr != nil {
		s.log.Warn().Err(markErr).Str("message_id", msg.ID).Msg("failed to set dedup key")
	}

	if err := s.repo.Insert(ctx, msg); err != nil {
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("message cache write failed")
	}

	metrics.MessagesReceivedTotal.WithLabelValues("message").Inc()
	s.sink.ApplyNew(msg)

	s.log.Debug().
		Str("message_id", msg.ID).
		Str("thread", msg.JobApplicationID).
		Msg("message processed")
	return nil
}
