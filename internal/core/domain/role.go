package domain

// Role identifies the kind of actor behind a session.
type Role string

const (
	RoleEmployer  Role = "employer"
	RoleJobseeker Role = "jobseeker"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// landingPaths defines the fixed per-role default landing page. A signed-in
// user reaching a page their role is not allowed to see is sent here, never
// to /login (wrong role is not the same as unauthenticated).
var landingPaths = map[Role]string{
	RoleEmployer:  "/employer-dashboard",
	RoleJobseeker: "/jobseeker-dashboard",
	RoleAdmin:     "/admin",
	RoleModerator: "/moderator",
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := landingPaths[r]
	return ok
}

// Privileged reports whether r is a back-office role. Privileged roles have
// no profile object server-side; their token claim is trusted as-is.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleModerator
}

// LandingPath returns the role's default landing page, or "/" for anything
// unrecognised.
func (r Role) LandingPath() string {
	if p, ok := landingPaths[r]; ok {
		return p
	}
	return "/"
}
