package domain

import (
	"errors"
	"time"
)

var ErrNoToken = errors.New("no stored token")
var ErrInvalidToken = errors.New("token is not decodable")
var ErrSessionInvalid = errors.New("session is no longer valid")
var ErrProfileNotFound = errors.New("profile not found")
var ErrBackendUnavailable = errors.New("marketplace backend unavailable")
var ErrForbidden = errors.New("access forbidden")
var ErrNotConnected = errors.New("realtime connection not established")

// Profile is the full user record fetched from the marketplace backend.
// Present only for employer/jobseeker sessions; admin and moderator have no
// profile object server-side.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionState is the atomically-read view of the session store. Consumers
// (route guard, handlers, the realtime manager) treat the whole struct as one
// consistent snapshot.
type SessionState struct {
	// Role is the resolved role: taken from the profile once fetched, or from
	// the locally-decoded token claim before that (and permanently, for
	// privileged roles). Empty means anonymous.
	Role Role `json:"role,omitempty"`
	// Profile is nil for anonymous and privileged sessions.
	Profile *Profile `json:"profile,omitempty"`
	// Loading is true while a token decode or profile fetch is in flight.
	Loading bool `json:"loading"`
	// HasToken reports whether a bearer token is currently persisted. The
	// guard uses it to tell "still resolving" apart from "anonymous".
	HasToken bool `json:"has_token"`
	// Err carries the last session-level error as a human-readable string.
	Err string `json:"error,omitempty"`
}

// Anonymous reports whether no role has been resolved.
func (s SessionState) Anonymous() bool {
	return s.Role == ""
}
