package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/core/domain"
	"github.com/hireway/session-gateway/internal/core/ports"
	"github.com/hireway/session-gateway/internal/core/session"
)

type memTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *memTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", domain.ErrNoToken
	}
	return m.token, nil
}

func (m *memTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

type stubBackend struct {
	profile *domain.Profile
}

func (b *stubBackend) Login(context.Context, string, string) (string, error) {
	return "", domain.ErrBackendUnavailable
}

func (b *stubBackend) FetchProfile(context.Context, string) (*domain.Profile, error) {
	return b.profile, nil
}

func (b *stubBackend) ListMyApplications(context.Context, string) ([]domain.Application, error) {
	return nil, nil
}

func (b *stubBackend) ListMyJobPosts(context.Context, string) ([]domain.JobPost, error) {
	return nil, nil
}

func (b *stubBackend) ListJobPostApplications(context.Context, string, string) ([]domain.Application, error) {
	return nil, nil
}

func signToken(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type countingFactory struct {
	mu    sync.Mutex
	built []*stubTransport
}

func (f *countingFactory) next() ports.RealtimeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	tr := newStubTransport()
	f.built = append(f.built, tr)
	return tr
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.built)
}

func (f *countingFactory) last() *stubTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.built) == 0 {
		return nil
	}
	return f.built[len(f.built)-1]
}

func newTestManager(t *testing.T, profile *domain.Profile, threads []domain.Application) (*Manager, *session.Store, *countingFactory) {
	t.Helper()
	tokens := &memTokenStore{}
	if profile != nil {
		tokens.token = signToken(t, profile.ID, profile.Role)
	}
	store := session.NewStore(tokens, &stubBackend{profile: profile}, zerolog.Nop())
	if err := store.RefreshProfile(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	factory := &countingFactory{}
	manager := NewManager(store, &stubLister{threads: threads}, nil, nil, factory.next, zerolog.Nop())
	manager.SetPipeline(&directPipeline{})
	return manager, store, factory
}

func TestEvaluate_StartsClientForEligibleProfile(t *testing.T) {
	profile := &domain.Profile{ID: "u1", Role: domain.RoleJobseeker}
	manager, _, factory := newTestManager(t, profile, accepted("a1"))

	manager.evaluate(context.Background())

	if factory.count() != 1 {
		t.Fatalf("expected one transport built, got %d", factory.count())
	}
	if factory.last().dials() != 1 {
		t.Fatalf("expected the client to dial")
	}
}

func TestEvaluate_SameSessionIsStable(t *testing.T) {
	profile := &domain.Profile{ID: "u1", Role: domain.RoleEmployer}
	manager, _, factory := newTestManager(t, profile, accepted("a1"))

	manager.evaluate(context.Background())
	manager.evaluate(context.Background())

	if factory.count() != 1 {
		t.Fatalf("re-evaluating an unchanged session must not rebuild the client, built %d", factory.count())
	}
}

func TestEvaluate_ClosesClientOnLogout(t *testing.T) {
	profile := &domain.Profile{ID: "u1", Role: domain.RoleJobseeker}
	manager, store, factory := newTestManager(t, profile, accepted("a1"))

	manager.evaluate(context.Background())
	if factory.count() != 1 {
		t.Fatalf("expected a client before logout")
	}

	if err := store.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	manager.evaluate(context.Background())

	if !factory.last().closed {
		t.Fatalf("logout must close the live connection")
	}
	if got := manager.Snapshot().Status; got != domain.StatusDisconnected {
		t.Fatalf("expected disconnected after logout, got %s", got)
	}
}

func TestEvaluate_PrivilegedRoleNeverConnects(t *testing.T) {
	manager, store, factory := newTestManager(t, nil, nil)

	tokens := &memTokenStore{token: signToken(t, "root", domain.RoleAdmin)}
	store = session.NewStore(tokens, &stubBackend{}, zerolog.Nop())
	if err := store.RefreshProfile(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	manager = NewManager(store, &stubLister{}, nil, &directPipeline{}, factory.next, zerolog.Nop())

	manager.evaluate(context.Background())

	if factory.count() != 0 {
		t.Fatalf("privileged sessions must not open realtime connections")
	}
}

func TestSnapshot_NoClientIsDisconnectedZero(t *testing.T) {
	manager, _, _ := newTestManager(t, nil, nil)

	snap := manager.Snapshot()
	if snap.Status != domain.StatusDisconnected || snap.UnreadCount != 0 {
		t.Fatalf("expected disconnected zero state, got %+v", snap)
	}
}

func TestManagerClose_Idempotent(t *testing.T) {
	profile := &domain.Profile{ID: "u1", Role: domain.RoleJobseeker}
	manager, _, factory := newTestManager(t, profile, accepted("a1"))

	manager.evaluate(context.Background())
	manager.Close()
	manager.Close()

	if !factory.last().closed {
		t.Fatalf("close must tear down the transport")
	}
}
