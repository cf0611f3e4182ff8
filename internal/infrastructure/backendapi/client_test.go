package backendapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop())
}

func TestLogin_ReturnsToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if creds["email"] != "a@b.com" || creds["password"] != "hunter2" {
			t.Errorf("unexpected credentials: %v", creds)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})

	token, err := client.Login(context.Background(), "a@b.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("expected tok-1, got %q", token)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), "a@b.com", "wrong")
	if !errors.Is(err, domain.ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestFetchProfile_SendsBearerAndDecodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected bearer header, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(domain.Profile{ID: "u1", Email: "a@b.com", Role: domain.RoleEmployer})
	})

	profile, err := client.FetchProfile(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("fetch profile: %v", err)
	}
	if profile.ID != "u1" || profile.Role != domain.RoleEmployer {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrSessionInvalid},
		{"not found", http.StatusNotFound, domain.ErrProfileNotFound},
		{"server error", http.StatusInternalServerError, domain.ErrBackendUnavailable},
		{"bad gateway", http.StatusBadGateway, domain.ErrBackendUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			_, err := client.FetchProfile(context.Background(), "tok")
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
			}
		})
	}
}

func TestConnectionRefusedIsBackendUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, zerolog.Nop())

	_, err := client.FetchProfile(context.Background(), "tok")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestListJobPostApplications_EscapesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/job-posts/p 1/applications" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]domain.Application{{ID: "a1", Status: domain.ApplicationAccepted}})
	})

	apps, err := client.ListJobPostApplications(context.Background(), "tok", "p 1")
	if err != nil {
		t.Fatalf("list applications: %v", err)
	}
	if len(apps) != 1 || apps[0].ID != "a1" {
		t.Fatalf("unexpected applications: %v", apps)
	}
}

func TestListMyJobPosts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/job-posts/mine" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]domain.JobPost{{ID: "p1", Title: "Backend engineer"}})
	})

	posts, err := client.ListMyJobPosts(context.Background(), "tok")
	if err != nil {
		t.Fatalf("list job posts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" {
		t.Fatalf("unexpected posts: %v", posts)
	}
}
