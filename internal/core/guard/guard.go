// Package guard implements the declarative access-control decision for the
// role-gated page tree. Decide is a pure function of the session snapshot;
// the HTTP adapter lives in internal/api/middleware.
package guard

import (
	"net/url"

	"github.com/hireway/session-gateway/internal/core/domain"
)

// DecisionKind enumerates the three terminal renders plus the loading hold.
type DecisionKind string

const (
	// Allow renders the guarded subtree.
	Allow DecisionKind = "allow"
	// Placeholder holds the decision while a token exists but the role is
	// still resolving, so the user is not bounced to /login prematurely.
	Placeholder DecisionKind = "placeholder"
	// RedirectLogin sends an anonymous user to /login, remembering where
	// they were headed.
	RedirectLogin DecisionKind = "redirect_login"
	// RedirectHome sends a signed-in user with the wrong role to their own
	// landing page. Never /login: wrong role is not unauthenticated.
	RedirectHome DecisionKind = "redirect_home"
)

const LoginPath = "/login"

// Decision is the guard's verdict for one request.
type Decision struct {
	Kind DecisionKind
	// RedirectTo is set for the two redirect kinds.
	RedirectTo string
	// Remember is the originally requested path including the query string,
	// set only for RedirectLogin.
	Remember string
}

// Decide gates one requested path. An empty allowed list means any
// authenticated role may pass.
func Decide(state domain.SessionState, allowed []domain.Role, requested string) Decision {
	if state.Loading && state.HasToken {
		return Decision{Kind: Placeholder}
	}

	if state.Anonymous() {
		return Decision{
			Kind:       RedirectLogin,
			RedirectTo: LoginPath,
			Remember:   requested,
		}
	}

	if len(allowed) > 0 && !roleAllowed(state.Role, allowed) {
		return Decision{
			Kind:       RedirectHome,
			RedirectTo: state.Role.LandingPath(),
		}
	}

	return Decision{Kind: Allow}
}

// LoginURL builds the login redirect target carrying the remembered path as
// a query parameter, the in-band counterpart of the redirect store.
func LoginURL(remember string) string {
	if remember == "" {
		return LoginPath
	}
	return LoginPath + "?return_to=" + url.QueryEscape(remember)
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
