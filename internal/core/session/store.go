// Package session holds the single authoritative place that turns the
// persisted bearer token into a resolved {role, profile} pair.
//
// The store is created once at startup and passed by reference to every
// consumer (route guard, handlers, realtime manager). State is re-derived
// from the token on every refresh; there is no server-side session object.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/api/metrics"
	"github.com/hireway/session-gateway/internal/core/domain"
	"github.com/hireway/session-gateway/internal/core/ports"
)

// Store derives session identity from the persisted bearer token.
//
// Token-clear policy (uniform across all branches): the stored token is
// removed when the session itself is proven invalid: an undecodable token,
// an expired claim, or a 401/404 from the profile fetch. It is preserved on
// transient backend failures so a flaky network cannot log the user out.
type Store struct {
	tokens  ports.TokenStore
	backend ports.BackendClient
	log     zerolog.Logger

	// instanceID tags log lines and metrics for this gateway process.
	instanceID string

	mu    sync.Mutex
	gen   uint64
	state domain.SessionState

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

func NewStore(tokens ports.TokenStore, backend ports.BackendClient, log zerolog.Logger) *Store {
	return &Store{
		tokens:     tokens,
		backend:    backend,
		log:        log.With().Str("component", "session").Logger(),
		instanceID: uuid.NewString(),
		state:      domain.SessionState{},
		subs:       make(map[int]chan struct{}),
	}
}

// InstanceID identifies this gateway process in logs and metrics.
func (s *Store) InstanceID() string { return s.instanceID }

// Snapshot returns a consistent view of the session state.
func (s *Store) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the currently stored bearer token, or domain.ErrNoToken.
func (s *Store) Token() (string, error) {
	return s.tokens.Load()
}

// Subscribe returns a channel that receives one notification per state
// change. Notifications are best-effort: a slow subscriber coalesces.
// Cancel releases the subscription.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Initialize runs the first derivation cycle. It is the same procedure as
// RefreshProfile; the separate name marks the application-mount call site.
func (s *Store) Initialize(ctx context.Context) error {
	return s.RefreshProfile(ctx)
}

// RefreshProfile re-derives {role, profile} from the stored token. Safe to
// call concurrently with itself: each call bumps a generation counter and a
// superseded call discards its own result (last-settled wins), while Loading
// still ends false exactly once per cycle.
func (s *Store) RefreshProfile(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen

	token, err := s.tokens.Load()
	if err != nil {
		if !errors.Is(err, domain.ErrNoToken) {
			s.log.Error().Err(err).Msg("token load failed")
		}
		// Terminal anonymous state.
		s.state = domain.SessionState{}
		s.mu.Unlock()
		s.notify()
		metrics.SessionRefreshesTotal.WithLabelValues("anonymous").Inc()
		return nil
	}

	role, expErr := decodeRole(token)
	if expErr != nil {
		s.log.Warn().Err(expErr).Msg("stored token rejected")
		if err := s.tokens.Clear(); err != nil {
			s.log.Error().Err(err).Msg("token clear failed")
		}
		s.state = domain.SessionState{Err: "your session is invalid, please sign in again"}
		s.mu.Unlock()
		s.notify()
		metrics.SessionRefreshesTotal.WithLabelValues("invalid").Inc()
		return expErr
	}

	if role.Privileged() {
		// No profile object exists server-side for back-office roles; the
		// locally-decoded claim is used as-is for the whole session.
		s.state = domain.SessionState{Role: role, HasToken: true}
		s.mu.Unlock()
		s.notify()
		metrics.SessionRefreshesTotal.WithLabelValues("ok").Inc()
		return nil
	}

	// Provisional role from the claim for fast UI paint; the profile is
	// authoritative once fetched.
	s.state = domain.SessionState{Role: role, HasToken: true, Loading: true}
	s.mu.Unlock()
	s.notify()

	profile, fetchErr := s.backend.FetchProfile(ctx, token)

	s.mu.Lock()
	if s.gen != gen {
		// A later refresh (or logout) supersedes this cycle.
		s.mu.Unlock()
		return nil
	}
	defer s.notify()

	switch {
	case fetchErr == nil:
		s.state = domain.SessionState{Role: profile.Role, Profile: profile, HasToken: true}
		s.mu.Unlock()
		metrics.SessionRefreshesTotal.WithLabelValues("ok").Inc()
		return nil

	case errors.Is(fetchErr, domain.ErrSessionInvalid) || errors.Is(fetchErr, domain.ErrProfileNotFound):
		if err := s.tokens.Clear(); err != nil {
			s.log.Error().Err(err).Msg("token clear failed")
		}
		s.state = domain.SessionState{Err: "your session has expired, please sign in again"}
		s.mu.Unlock()
		s.log.Warn().Err(fetchErr).Msg("profile fetch invalidated session")
		metrics.SessionRefreshesTotal.WithLabelValues("invalid").Inc()
		return fetchErr

	default:
		// Transient failure: keep the provisional role and the token, show
		// the error, let the caller retry by refreshing again.
		s.state = domain.SessionState{Role: role, HasToken: true, Err: "could not load your profile"}
		s.mu.Unlock()
		s.log.Error().Err(fetchErr).Msg("profile fetch failed")
		metrics.SessionRefreshesTotal.WithLabelValues("error").Inc()
		return fetchErr
	}
}

// Logout clears the token and resets the session to anonymous. Realtime
// teardown happens in the manager, which observes the state change.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.gen++ // invalidate any in-flight refresh
	err := s.tokens.Clear()
	s.state = domain.SessionState{}
	s.mu.Unlock()
	s.notify()
	if err != nil {
		s.log.Error().Err(err).Msg("token clear failed on logout")
		return err
	}
	s.log.Info().Msg("logged out")
	return nil
}

// decodeRole extracts the role claim from the token without verifying the
// signature: the gateway never trusts the token for anything the backend
// does not re-check, except the privileged-role shortcut inherited from the
// product's trust model.
func decodeRole(token string) (domain.Role, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", domain.ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "", domain.ErrInvalidToken
	}
	if exp != nil && exp.Before(time.Now()) {
		return "", domain.ErrSessionInvalid
	}

	raw, _ := claims["role"].(string)
	role := domain.Role(raw)
	if !role.Valid() {
		return "", domain.ErrInvalidToken
	}
	return role, nil
}
