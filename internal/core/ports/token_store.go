package ports

// TokenStore persists the bearer token across gateway restarts. It is the
// one piece of shared mutable state read by several consumers; values are
// only ever fully replaced or removed, never partially mutated.
type TokenStore interface {
	// Load returns the stored token, or domain.ErrNoToken when absent.
	Load() (string, error)
	Save(token string) error
	// Clear removes the token. Clearing an absent token is not an error.
	Clear() error
}
