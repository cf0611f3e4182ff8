package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestDedup_MarkThenDuplicate(t *testing.T) {
	client, _ := testClient(t)
	dedup := NewDedupChecker(client)
	ctx := context.Background()

	dup, err := dedup.IsDuplicate(ctx, "m1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if dup {
		t.Fatalf("unseen message reported as duplicate")
	}

	if err := dedup.Mark(ctx, "m1"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	dup, err = dedup.IsDuplicate(ctx, "m1")
	if err != nil {
		t.Fatalf("check after mark: %v", err)
	}
	if !dup {
		t.Fatalf("marked message not reported as duplicate")
	}

	// Other ids are unaffected.
	dup, err = dedup.IsDuplicate(ctx, "m2")
	if err != nil {
		t.Fatalf("check other id: %v", err)
	}
	if dup {
		t.Fatalf("unrelated id reported as duplicate")
	}
}

func TestDedup_MarkExpires(t *testing.T) {
	client, mr := testClient(t)
	dedup := NewDedupChecker(client)
	ctx := context.Background()

	if err := dedup.Mark(ctx, "m1"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	mr.FastForward(dedupTTL + time.Second)

	dup, err := dedup.IsDuplicate(ctx, "m1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if dup {
		t.Fatalf("expired mark must not count as duplicate")
	}
}
