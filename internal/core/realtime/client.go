// Package realtime centralizes the notification client: one module owns the
// single realtime connection, the per-thread unread counters, and the
// connection status consumed by every badge in the UI.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/api/metrics"
	"github.com/hireway/session-gateway/internal/core/domain"
	"github.com/hireway/session-gateway/internal/core/ports"
)

// ThreadLister abstracts the eligibility probe (service.EligibilityService).
type ThreadLister interface {
	AcceptedThreads(ctx context.Context, token string, profile *domain.Profile) ([]domain.Application, error)
}

// Client is a single-use realtime notification client bound to one session.
// The manager builds a fresh instance per resolved profile and closes it on
// profile change, logout, or shutdown. After Close no event, however late,
// mutates its state.
type Client struct {
	eligibility ThreadLister
	transport   ports.RealtimeTransport
	repo        ports.MessageRepository
	pipeline    ports.MessagePipeline
	log         zerolog.Logger

	mu      sync.Mutex
	active  bool
	closed  bool
	dialed  bool
	userID  string
	threads []string
	rooms   map[string]int
	status  domain.ConnectionStatus
	errStr  string

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

func NewClient(
	eligibility ThreadLister,
	transport ports.RealtimeTransport,
	repo ports.MessageRepository,
	pipeline ports.MessagePipeline,
	log zerolog.Logger,
) *Client {
	return &Client{
		eligibility: eligibility,
		transport:   transport,
		repo:        repo,
		pipeline:    pipeline,
		log:         log.With().Str("component", "realtime").Logger(),
		rooms:       make(map[string]int),
		status:      domain.StatusDisconnected,
		subs:        make(map[int]chan struct{}),
	}
}

// UserID returns the profile id this client was started for ("" before Start).
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Snapshot returns the state pair consumed by the unread badge.
func (c *Client) Snapshot() domain.RealtimeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.RealtimeState{
		Status:      c.status,
		UnreadCount: c.unreadLocked(),
		Err:         c.errStr,
	}
}

func (c *Client) unreadLocked() int {
	total := 0
	for _, n := range c.rooms {
		total += n
	}
	return total
}

// Subscribe returns a channel notified on every state change plus a cancel
// function. Notifications coalesce for slow subscribers.
func (c *Client) Subscribe() (<-chan struct{}, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan struct{}, 1)
	c.subs[id] = ch
	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Client) notify() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Start runs the eligibility check and, when at least one accepted thread
// exists, dials the connection and joins every thread's room. With zero
// accepted threads the transport is never dialed and the client stays inert.
func (c *Client) Start(ctx context.Context, token string, profile *domain.Profile) error {
	role := profile.Role
	if role != domain.RoleJobseeker && role != domain.RoleEmployer {
		return nil
	}

	threads, err := c.eligibility.AcceptedThreads(ctx, token, profile)
	if err != nil {
		metrics.EligibilityChecksTotal.WithLabelValues(string(role), "error").Inc()
		c.log.Warn().Err(err).Msg("eligibility check failed, not connecting this cycle")
		return err
	}
	if len(threads) == 0 {
		metrics.EligibilityChecksTotal.WithLabelValues(string(role), "ineligible").Inc()
		c.mu.Lock()
		c.userID = profile.ID
		c.mu.Unlock()
		c.log.Info().Msg("no accepted threads, realtime connection skipped")
		return nil
	}
	metrics.EligibilityChecksTotal.WithLabelValues(string(role), "eligible").Inc()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.active = true
	c.dialed = true
	c.userID = profile.ID
	c.threads = c.threads[:0]
	for _, t := range threads {
		c.threads = append(c.threads, t.ID)
	}
	c.seedCountersLocked(ctx)
	c.mu.Unlock()

	c.transport.OnStatus(c.handleStatus)
	c.transport.OnEvent(ports.EventChatHistory, c.onChatHistory)
	c.transport.OnEvent(ports.EventNewMessage, c.onNewMessage)

	if err := c.transport.Dial(ctx, token); err != nil {
		// The transport keeps retrying on its own; status events reflect it.
		c.log.Warn().Err(err).Msg("initial dial failed, transport will retry")
	}
	return nil
}

// seedCountersLocked restores per-thread unread counts from the message
// cache so the badge is right before the server's history arrives. Best
// effort: the chatHistory payload replaces these values on join.
func (c *Client) seedCountersLocked(ctx context.Context) {
	if c.repo == nil {
		return
	}
	for _, threadID := range c.threads {
		n, err := c.repo.CountUnread(ctx, threadID, c.userID)
		if err != nil {
			c.log.Debug().Err(err).Str("thread", threadID).Msg("unread seed skipped")
			continue
		}
		if n > 0 {
			c.rooms[threadID] = int(n)
		}
	}
	metrics.UnreadMessages.Set(float64(c.unreadLocked()))
}

// Close tears the client down: disconnect, drop listeners, and freeze state.
// Idempotent; late events arriving after Close are discarded.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	wasActive := c.active
	c.active = false
	c.status = domain.StatusDisconnected
	c.errStr = ""
	c.mu.Unlock()

	if wasActive {
		if err := c.transport.Close(); err != nil {
			c.log.Debug().Err(err).Msg("transport close")
		}
	}
	metrics.RealtimeConnected.Set(0)
	metrics.UnreadMessages.Set(0)
	c.notify()
}

func (c *Client) handleStatus(status domain.ConnectionStatus, err error) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.status = status
	c.errStr = ""
	if err != nil {
		c.errStr = err.Error()
	}
	threads := append([]string(nil), c.threads...)
	c.mu.Unlock()

	switch status {
	case domain.StatusConnected:
		metrics.RealtimeConnected.Set(1)
		// Join (or re-join after a reconnect) every accepted thread's room.
		// Join order across rooms is not significant.
		for _, threadID := range threads {
			if err := c.transport.Emit(ports.EventJoinChat, ports.JoinChatPayload{JobApplicationID: threadID}); err != nil {
				c.log.Warn().Err(err).Str("thread", threadID).Msg("join emit failed")
			}
		}
	default:
		metrics.RealtimeConnected.Set(0)
	}

	c.log.Info().Str("status", string(status)).Msg("realtime status changed")
	c.notify()
}

func (c *Client) onChatHistory(data json.RawMessage) {
	var history []domain.ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		c.log.Warn().Err(err).Msg("malformed chatHistory payload")
		return
	}
	if len(history) == 0 {
		return
	}
	c.pipeline.Enqueue(ports.MessageEvent{
		Kind:     ports.MessageEventHistory,
		ThreadID: history[0].JobApplicationID,
		History:  history,
	})
}

func (c *Client) onNewMessage(data json.RawMessage) {
	var msg domain.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Warn().Err(err).Msg("malformed newMessage payload")
		return
	}
	c.pipeline.Enqueue(ports.MessageEvent{
		Kind:     ports.MessageEventNew,
		ThreadID: msg.JobApplicationID,
		Message:  msg,
	})
}

// ApplyHistory implements ports.UnreadSink. The history payload is
// authoritative for its room: the room's contribution is replaced, and the
// published total is the sum across rooms, so joining a second room never
// resets what the first contributed.
func (c *Client) ApplyHistory(threadID string, history []domain.ChatMessage) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	unread := 0
	for _, msg := range history {
		if msg.UnreadFor(c.userID) {
			unread++
		}
	}
	c.rooms[threadID] = unread
	metrics.UnreadMessages.Set(float64(c.unreadLocked()))
	c.mu.Unlock()
	c.notify()
}

// ApplyNew implements ports.UnreadSink.
func (c *Client) ApplyNew(msg domain.ChatMessage) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	if !msg.UnreadFor(c.userID) {
		c.mu.Unlock()
		return
	}
	c.rooms[msg.JobApplicationID]++
	metrics.UnreadMessages.Set(float64(c.unreadLocked()))
	c.mu.Unlock()
	c.notify()
}
