package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupTTL outlives any realistic reconnect window; beyond it a replayed
// message id no longer matters because the history payload re-seeds the
// counter on rejoin.
const dedupTTL = 24 * time.Hour

// DedupChecker provides idempotency checks for realtime message deliveries.
// Key format: dedup:msg:<message_id>
type DedupChecker struct {
	client *redis.Client
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this message has already been processed.
func (d *DedupChecker) IsDuplicate(ctx context.Context, messageID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(messageID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this message has been processed (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, messageID string) error {
	return d.client.Set(ctx, d.key(messageID), "1", dedupTTL).Err()
}

func (d *DedupChecker) key(messageID string) string {
	return "dedup:msg:" + messageID
}
