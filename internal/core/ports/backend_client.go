package ports

import (
	"context"

	"github.com/hireway/session-gateway/internal/core/domain"
)

// BackendClient is the gateway's view of the marketplace backend. Every call
// carries the bearer token explicitly: the session store owns the token and
// no other component is allowed to cache it.
type BackendClient interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, email, password string) (string, error)

	// FetchProfile returns the full user record for the token's subject.
	// 401/404 responses map to domain.ErrSessionInvalid and
	// domain.ErrProfileNotFound; anything else to domain.ErrBackendUnavailable.
	FetchProfile(ctx context.Context, token string) (*domain.Profile, error)

	// ListMyApplications returns the jobseeker's own applications.
	ListMyApplications(ctx context.Context, token string) ([]domain.Application, error)

	// ListMyJobPosts returns the employer's own job posts.
	ListMyJobPosts(ctx context.Context, token string) ([]domain.JobPost, error)

	// ListJobPostApplications returns the applications received on one post.
	ListJobPostApplications(ctx context.Context, token, jobPostID string) ([]domain.Application, error)
}
