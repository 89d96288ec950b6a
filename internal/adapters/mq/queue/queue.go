// Package queue holds training jobs between the HTTP/scheduler producers
// and the single trainer worker.
//
// Enqueue never blocks: a full queue is reported as ErrQueueFull so the
// caller can apply backpressure.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/pkg/metrics"
)

const defaultCapacity = 64

// Job is one training batch waiting for the trainer.
type Job struct {
	ID         string              `json:"id"`
	Source     string              `json:"source"`
	Records    []model.MatchRecord `json:"-"`
	EnqueuedAt time.Time           `json:"enqueued_at"`
}

// NewJob wraps records in a job with a fresh id.
func NewJob(source string, records []model.MatchRecord) Job {
	return Job{
		ID:         uuid.NewString(),
		Source:     source,
		Records:    records,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	Enqueue(ctx context.Context, j Job) error
	Dequeue(ctx context.Context) <-chan Job
	Len() int
	Capacity() int
	Close() error
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds j or fails with ErrQueueFull, ErrClosed or the context error.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.reject("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		q.reject("context_cancelled")
		return fmt.Errorf("enqueue %s: %w", j.ID, err)
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		q.reject("queue_full")
		return fmt.Errorf("%w: %d pending", ErrQueueFull, q.capacity)
	}
}

// Dequeue returns a channel of jobs. It is closed once the queue is
// closed and drained, or ctx ends.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of pending jobs.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close stops new enqueues; pending jobs can still be drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) observe() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}
