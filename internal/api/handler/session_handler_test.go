package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hireway/session-gateway/internal/core/domain"
)

func TestSessionGet_ReturnsSnapshot(t *testing.T) {
	session := &stubSession{state: domain.SessionState{
		Role:     domain.RoleEmployer,
		Profile:  &domain.Profile{ID: "e1", Role: domain.RoleEmployer},
		HasToken: true,
	}}
	h := NewSessionHandler(session)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/session", nil), rec)
	if err := h.Get(c); err != nil {
		t.Fatalf("get: %v", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Role != domain.RoleEmployer || !state.HasToken {
		t.Fatalf("unexpected snapshot: %+v", state)
	}
}

func TestSessionRefresh_FailureStillReturnsSnapshot(t *testing.T) {
	session := &stubSession{
		state:      domain.SessionState{Err: "your session is invalid, please sign in again"},
		refreshErr: errors.New("backend down"),
	}
	h := NewSessionHandler(session)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/session/refresh", nil), rec)
	if err := h.Refresh(c); err != nil {
		t.Fatalf("refresh must not surface transport errors: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if session.refreshes != 1 {
		t.Fatalf("expected a refresh attempt, got %d", session.refreshes)
	}

	var state domain.SessionState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Err == "" {
		t.Fatalf("session error must be visible in the snapshot")
	}
}

func TestNotificationsGet_MirrorsRealtimeState(t *testing.T) {
	h := NewNotificationHandler(fixedRealtime{state: domain.RealtimeState{
		Status:      domain.StatusConnected,
		UnreadCount: 3,
	}})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/notifications", nil), rec)
	if err := h.Get(c); err != nil {
		t.Fatalf("get: %v", err)
	}

	var state domain.RealtimeState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Status != domain.StatusConnected || state.UnreadCount != 3 {
		t.Fatalf("unexpected state: %+v", state)
	}
}

type fixedRealtime struct {
	state domain.RealtimeState
}

func (f fixedRealtime) Snapshot() domain.RealtimeState { return f.state }
