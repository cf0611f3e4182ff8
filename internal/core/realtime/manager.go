package realtime

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/core/domain"
	"github.com/hireway/session-gateway/internal/core/ports"
	"github.com/hireway/session-gateway/internal/core/session"
)

// TransportFactory builds a fresh transport per client; connections are
// never reused across sessions.
type TransportFactory func() ports.RealtimeTransport

// Manager ties the client lifecycle to the session store: it observes state
// changes and starts a client when an eligible profile resolves, and closes
// it on profile change, logout, or shutdown. It also implements
// ports.UnreadSink, forwarding pipeline output to whichever client is
// current so the dispatcher can be built once at startup.
type Manager struct {
	store       *session.Store
	eligibility ThreadLister
	repo        ports.MessageRepository
	pipeline    ports.MessagePipeline
	transports  TransportFactory
	log         zerolog.Logger

	mu     sync.Mutex
	client *Client
}

func NewManager(
	store *session.Store,
	eligibility ThreadLister,
	repo ports.MessageRepository,
	pipeline ports.MessagePipeline,
	transports TransportFactory,
	log zerolog.Logger,
) *Manager {
	return &Manager{
		store:       store,
		eligibility: eligibility,
		repo:        repo,
		pipeline:    pipeline,
		transports:  transports,
		log:         log.With().Str("component", "realtime-manager").Logger(),
	}
}

// SetPipeline installs the processing pipeline handed to every client. The
// pipeline's service feeds back into this manager as the unread sink, so it
// is built after the manager; call this before Run.
func (m *Manager) SetPipeline(pipeline ports.MessagePipeline) {
	m.pipeline = pipeline
}

// Run blocks until ctx is cancelled, re-evaluating the client lifecycle on
// every session state change. The deferred Close guarantees no dangling
// connection survives shutdown.
func (m *Manager) Run(ctx context.Context) {
	changes, cancel := m.store.Subscribe()
	defer cancel()
	defer m.Close()

	m.evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			m.evaluate(ctx)
		}
	}
}

// evaluate reconciles the current client with the session snapshot.
func (m *Manager) evaluate(ctx context.Context) {
	snap := m.store.Snapshot()

	eligible := snap.Profile != nil &&
		(snap.Role == domain.RoleJobseeker || snap.Role == domain.RoleEmployer)

	m.mu.Lock()
	current := m.client
	m.mu.Unlock()

	if current != nil {
		if eligible && current.UserID() == snap.Profile.ID {
			return // same session, nothing to do
		}
		current.Close()
		m.mu.Lock()
		m.client = nil
		m.mu.Unlock()
	}

	if !eligible {
		return
	}

	token, err := m.store.Token()
	if err != nil {
		m.log.Warn().Err(err).Msg("no token for realtime connection")
		return
	}

	c := NewClient(m.eligibility, m.transports(), m.repo, m.pipeline, m.log)
	if err := c.Start(ctx, token, snap.Profile); err != nil {
		// No automatic retry: the next session refresh triggers another
		// evaluation cycle.
		c.Close()
		return
	}

	m.mu.Lock()
	m.client = c
	m.mu.Unlock()
}

// Snapshot returns the current client's state, or a disconnected zero state
// when no client exists (anonymous or privileged sessions).
func (m *Manager) Snapshot() domain.RealtimeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return domain.RealtimeState{Status: domain.StatusDisconnected}
	}
	return m.client.Snapshot()
}

// Close tears down the current client, if any. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	current := m.client
	m.client = nil
	m.mu.Unlock()
	if current != nil {
		current.Close()
	}
}

// ApplyHistory implements ports.UnreadSink.
func (m *Manager) ApplyHistory(threadID string, history []domain.ChatMessage) {
	m.mu.Lock()
	current := m.client
	m.mu.Unlock()
	if current != nil {
		current.ApplyHistory(threadID, history)
	}
}

// ApplyNew implements ports.UnreadSink.
func (m *Manager) ApplyNew(msg domain.ChatMessage) {
	m.mu.Lock()
	current := m.client
	m.mu.Unlock()
	if current != nil {
		current.ApplyNew(msg)
	}
}
