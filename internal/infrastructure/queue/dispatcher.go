package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes inbound message events to a fixed set of workers using
// consistent hashing on the thread id, guaranteeing per-conversation
// processing order while rooms remain independent of each other.
type Dispatcher struct {
	workers []chan ports.MessageEvent
	service ports.NotificationService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.NotificationService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.MessageEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.MessageEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an event to the worker responsible for its thread.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(event ports.MessageEvent) {
	d.workers[d.shardIndex(event.ThreadID)] <- event
}

// shardIndex maps a thread id deterministically to a worker index.
func (d *Dispatcher) shardIndex(threadID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(threadID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.MessageEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("thread", event.ThreadID).
					Int("worker_id", id).
					Msg("message event processing failed")
			}
		}
	}
}
