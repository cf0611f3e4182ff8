package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/core/domain"
)

type fixedSession struct {
	state domain.SessionState
}

func (f *fixedSession) Snapshot() domain.SessionState { return f.state }

type memRedirects struct {
	saved []string
}

func (m *memRedirects) Save(_ context.Context, path string) error {
	m.saved = append(m.saved, path)
	return nil
}

func (m *memRedirects) Consume(context.Context) (string, error) {
	if len(m.saved) == 0 {
		return "", nil
	}
	path := m.saved[len(m.saved)-1]
	m.saved = m.saved[:len(m.saved)-1]
	return path, nil
}

func serve(t *testing.T, state domain.SessionState, redirects *memRedirects, target string, allowed ...domain.Role) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	mw := Guard(&fixedSession{state: state}, redirects, zerolog.Nop(), allowed...)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "page")
	})

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func employerSession() domain.SessionState {
	return domain.SessionState{
		Role:     domain.RoleEmployer,
		Profile:  &domain.Profile{ID: "e1", Role: domain.RoleEmployer},
		HasToken: true,
	}
}

func TestGuard_AllowedRolePasses(t *testing.T) {
	rec := serve(t, employerSession(), &memRedirects{}, "/employer-dashboard", domain.RoleEmployer)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "page" {
		t.Fatalf("expected the page to render, got %q", rec.Body.String())
	}
}

func TestGuard_AnonymousIsSentToLogin(t *testing.T) {
	redirects := &memRedirects{}
	rec := serve(t, domain.SessionState{}, redirects, "/notifications?tab=unread", domain.RoleEmployer, domain.RoleJobseeker)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login?return_to=%2Fnotifications%3Ftab%3Dunread" {
		t.Fatalf("unexpected login redirect: %q", got)
	}
	if len(redirects.saved) != 1 || redirects.saved[0] != "/notifications?tab=unread" {
		t.Fatalf("requested path not remembered: %v", redirects.saved)
	}
}

func TestGuard_WrongRoleGoesToOwnLanding(t *testing.T) {
	redirects := &memRedirects{}
	rec := serve(t, employerSession(), redirects, "/admin", domain.RoleAdmin)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != domain.RoleEmployer.LandingPath() {
		t.Fatalf("expected employer landing, got %q", got)
	}
	if len(redirects.saved) != 0 {
		t.Fatalf("wrong-role redirect must not remember a path: %v", redirects.saved)
	}
}

func TestGuard_LoadingWithTokenHolds(t *testing.T) {
	state := domain.SessionState{Role: domain.RoleJobseeker, Loading: true, HasToken: true}
	rec := serve(t, state, &memRedirects{}, "/jobseeker-dashboard", domain.RoleJobseeker)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while resolving, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After hint, got %q", got)
	}
}

func TestGuard_EmptyAllowedAdmitsAnyAuthenticated(t *testing.T) {
	rec := serve(t, employerSession(), &memRedirects{}, "/notifications")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
