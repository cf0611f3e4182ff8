package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// returnToKey holds the path (with query string) the user was heading for
// when the guard bounced them to /login. It is the durable fallback for the
// redirect carried in the login URL itself, so the destination survives a
// full page reload.
const returnToKey = "login:return_to"

// returnToTTL bounds how long a remembered destination stays valid.
const returnToTTL = 10 * time.Minute

// RedirectStore remembers the post-login destination in Redis.
type RedirectStore struct {
	client *redis.Client
}

func NewRedirectStore(client *redis.Client) *RedirectStore {
	return &RedirectStore{client: client}
}

// Save stores the remembered path, replacing any previous one.
func (r *RedirectStore) Save(ctx context.Context, path string) error {
	if err := r.client.Set(ctx, returnToKey, path, returnToTTL).Err(); err != nil {
		return fmt.Errorf("redirect save: %w", err)
	}
	return nil
}

// Consume returns the remembered path and deletes it in one round trip.
// Returns "" when nothing is stored.
func (r *RedirectStore) Consume(ctx context.Context) (string, error) {
	path, err := r.client.GetDel(ctx, returnToKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redirect consume: %w", err)
	}
	return path, nil
}
