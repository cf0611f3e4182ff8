package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/core/domain"
	"github.com/hireway/session-gateway/internal/core/ports"
)

type recordingService struct {
	mu      sync.Mutex
	threads map[string][]string
	wg      sync.WaitGroup
}

func newRecordingService() *recordingService {
	return &recordingService{threads: make(map[string][]string)}
}

func (s *recordingService) Process(_ context.Context, event ports.MessageEvent) error {
	s.mu.Lock()
	s.threads[event.ThreadID] = append(s.threads[event.ThreadID], event.Message.ID)
	s.mu.Unlock()
	s.wg.Done()
	return nil
}

func (s *recordingService) wait(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for events to drain")
	}
}

func (s *recordingService) ids(threadID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.threads[threadID]...)
}

func event(threadID, msgID string) ports.MessageEvent {
	return ports.MessageEvent{
		Kind:     ports.MessageEventNew,
		ThreadID: threadID,
		Message:  domain.ChatMessage{ID: msgID, JobApplicationID: threadID},
	}
}

func TestDispatcher_PreservesPerThreadOrder(t *testing.T) {
	svc := newRecordingService()
	d := NewDispatcher(4, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	const perThread = 50
	threads := []string{"a1", "a2", "a3"}
	svc.wg.Add(perThread * len(threads))

	// Interleave across threads so shards receive mixed traffic.
	for i := 0; i < perThread; i++ {
		for _, threadID := range threads {
			d.Enqueue(event(threadID, fmt.Sprintf("%s-m%03d", threadID, i)))
		}
	}
	svc.wait(t)

	for _, threadID := range threads {
		got := svc.ids(threadID)
		if len(got) != perThread {
			t.Fatalf("thread %s: expected %d events, got %d", threadID, perThread, len(got))
		}
		for i, id := range got {
			want := fmt.Sprintf("%s-m%03d", threadID, i)
			if id != want {
				t.Fatalf("thread %s: out of order at %d: got %s want %s", threadID, i, id, want)
			}
		}
	}
}

func TestDispatcher_SameThreadSameShard(t *testing.T) {
	d := NewDispatcher(8, newRecordingService(), zerolog.Nop())

	for _, threadID := range []string{"a1", "a2", "application-7f3c"} {
		first := d.shardIndex(threadID)
		for i := 0; i < 10; i++ {
			if got := d.shardIndex(threadID); got != first {
				t.Fatalf("shard for %s not stable: %d vs %d", threadID, got, first)
			}
		}
	}
}

func TestDispatcher_DefaultWorkerCount(t *testing.T) {
	d := NewDispatcher(0, newRecordingService(), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers by default, got %d", defaultWorkers, len(d.workers))
	}
}
