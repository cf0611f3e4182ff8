// Package backendapi is the HTTP client for the marketplace backend. The
// gateway consumes five call shapes: login, profile, own applications, own
// job posts, and per-post applications.
package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/core/domain"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a backend client for the given base URL (no trailing
// slash). A non-positive timeout falls back to the default.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "backend").Logger(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out loginResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login: %w", domain.ErrSessionInvalid)
	}
	return out.Token, nil
}

// FetchProfile returns the token subject's full user record.
func (c *Client) FetchProfile(ctx context.Context, token string) (*domain.Profile, error) {
	var profile domain.Profile
	if err := c.get(ctx, token, "/api/profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListMyApplications returns the jobseeker's own applications.
func (c *Client) ListMyApplications(ctx context.Context, token string) ([]domain.Application, error) {
	var apps []domain.Application
	if err := c.get(ctx, token, "/api/applications/mine", &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ListMyJobPosts returns the employer's own job posts.
func (c *Client) ListMyJobPosts(ctx context.Context, token string) ([]domain.JobPost, error) {
	var posts []domain.JobPost
	if err := c.get(ctx, token, "/api/job-posts/mine", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListJobPostApplications returns the applications received on one post.
func (c *Client) ListJobPostApplications(ctx context.Context, token, jobPostID string) ([]domain.Application, error) {
	var apps []domain.Application
	path := "/api/job-posts/" + url.PathEscape(jobPostID) + "/applications"
	if err := c.get(ctx, token, path, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (c *Client) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.do(req, out)
}

// do executes the request and maps status codes onto domain errors:
// 401 → ErrSessionInvalid, 404 → ErrProfileNotFound, other non-2xx and
// transport failures → ErrBackendUnavailable.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", req.Method, req.URL.Path, domain.ErrBackendUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, domain.ErrSessionInvalid)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, domain.ErrProfileNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: status %d: %w", req.Method, req.URL.Path, resp.StatusCode, domain.ErrBackendUnavailable)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
