package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/core/domain"
	"github.com/hireway/session-gateway/internal/core/ports"
)

// EligibilityService answers one question: does this user have at least one
// accepted application thread worth opening the realtime connection for?
type EligibilityService struct {
	backend ports.BackendClient
	log     zerolog.Logger
}

func NewEligibilityService(backend ports.BackendClient, log zerolog.Logger) *EligibilityService {
	return &EligibilityService{backend: backend, log: log}
}

// AcceptedThreads returns the accepted applications backing live
// conversation threads for the given profile.
//
// Jobseekers are answered with a single listing call. Employers require a
// fan-out: one applications request per job post, all issued concurrently
// and joined before the decision is made. Any failed branch fails the whole
// check; the caller simply skips connecting this cycle.
func (s *EligibilityService) AcceptedThreads(ctx context.Context, token string, profile *domain.Profile) ([]domain.Application, error) {
	switch profile.Role {
	case domain.RoleJobseeker:
		apps, err := s.backend.ListMyApplications(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("eligibility: list applications: %w", err)
		}
		return filterAccepted(apps), nil

	case domain.RoleEmployer:
		posts, err := s.backend.ListMyJobPosts(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("eligibility: list job posts: %w", err)
		}
		apps, err := s.fanOutApplications(ctx, token, posts)
		if err != nil {
			return nil, err
		}
		return filterAccepted(apps), nil

	default:
		return nil, nil
	}
}

// fanOutApplications fetches applications for every post concurrently and
// flattens the results. Per-post ordering does not matter; the first error
// observed is returned after all branches settle.
func (s *EligibilityService) fanOutApplications(ctx context.Context, token string, posts []domain.JobPost) ([]domain.Application, error) {
	results := make([][]domain.Application, len(posts))
	errs := make([]error, len(posts))

	var wg sync.WaitGroup
	for i, post := range posts {
		wg.Add(1)
		go func(i int, postID string) {
			defer wg.Done()
			apps, err := s.backend.ListJobPostApplications(ctx, token, postID)
			if err != nil {
				errs[i] = fmt.Errorf("eligibility: applications for post %s: %w", postID, err)
				return
			}
			results[i] = apps
		}(i, post.ID)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var flat []domain.Application
	for _, apps := range results {
		flat = append(flat, apps...)
	}
	return flat, nil
}

func filterAccepted(apps []domain.Application) []domain.Application {
	var accepted []domain.Application
	for _, a := range apps {
		if a.Accepted() {
			accepted = append(accepted, a)
		}
	}
	return accepted
}
