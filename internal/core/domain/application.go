package domain

import "time"

// ApplicationStatus represents the lifecycle state of a job application.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "Pending"
	ApplicationAccepted  ApplicationStatus = "Accepted"
	ApplicationRejected  ApplicationStatus = "Rejected"
	ApplicationWithdrawn ApplicationStatus = "Withdrawn"
)

// Application ties a jobseeker to a job post. Only an Accepted application
// has a live conversation thread behind it.
type Application struct {
	ID          string            `json:"id"`
	JobPostID   string            `json:"job_post_id"`
	ApplicantID string            `json:"applicant_id"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Accepted reports whether the application backs an active conversation.
func (a Application) Accepted() bool {
	return a.Status == ApplicationAccepted
}

// JobPost is the employer-side summary used for the per-post applications
// fan-out during the realtime eligibility check.
type JobPost struct {
	ID         string    `json:"id"`
	EmployerID string    `json:"employer_id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
