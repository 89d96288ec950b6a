package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pitchcast/internal/adapters/mq/queue"
	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/internal/domain/rating"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

const historySize = 32

// RatingTrainer applies a batch of results to the ratings.
type RatingTrainer interface {
	TrainBatch(ctx context.Context, records []model.MatchRecord) (rating.TrainReport, error)
}

// Source yields training jobs.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// ResultFunc observes a finished job.
type ResultFunc func(ctx context.Context, job queue.Job, report rating.TrainReport, err error)

// JobResult is the outcome of one training job.
type JobResult struct {
	JobID      string             `json:"job_id"`
	Source     string             `json:"source"`
	Report     rating.TrainReport `json:"report"`
	Error      string             `json:"error,omitempty"`
	FinishedAt time.Time          `json:"finished_at"`
}

// Trainer is the only consumer of the training queue, so batches are
// applied one at a time in arrival order.
type Trainer struct {
	source   Source
	trainer  RatingTrainer
	name     string
	onResult ResultFunc

	mu      sync.RWMutex
	history []JobResult

	shutdown chan struct{}
	done     chan struct{}
	once     sync.Once

	logger logger.Logger
}

// NewTrainer creates the trainer worker.
func NewTrainer(source Source, trainer RatingTrainer, opts ...Option) *Trainer {
	w := &Trainer{
		source:   source,
		trainer:  trainer,
		name:     "trainer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run consumes jobs until ctx ends, Shutdown is called or the queue closes.
func (w *Trainer) Run(ctx context.Context) {
	defer close(w.done)
	metrics.UpdateWorkerCount(1)

	jobs := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown stops the loop after the job in flight.
func (w *Trainer) Shutdown(ctx context.Context) error {
	w.once.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("trainer shutdown timed out: %w", ctx.Err())
	}
}

// Results returns the most recent job results, newest first.
func (w *Trainer) Results() []JobResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]JobResult, len(w.history))
	for i, r := range w.history {
		out[len(w.history)-1-i] = r
	}
	return out
}

// Result looks up a recent job by id.
func (w *Trainer) Result(jobID string) (JobResult, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, r := range w.history {
		if r.JobID == jobID {
			return r, true
		}
	}
	return JobResult{}, false
}

func (w *Trainer) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	report, err := w.trainer.TrainBatch(ctx, job.Records)
	res := JobResult{JobID: job.ID, Source: job.Source, Report: report, FinishedAt: time.Now().UTC()}
	if err != nil {
		res.Error = err.Error()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("trainer", "train_failed")
		w.logger.Error(ctx, "training job failed",
			logger.String("job_id", job.ID),
			logger.Error(err))
	} else {
		w.logger.Info(ctx, "training job done",
			logger.String("job_id", job.ID),
			logger.String("source", job.Source),
			logger.String("outcome", report.Outcome),
			logger.Int("applied", report.Applied))
	}

	if w.onResult != nil {
		w.onResult(ctx, job, report, err)
	}

	w.mu.Lock()
	w.history = append(w.history, res)
	if len(w.history) > historySize {
		w.history = w.history[len(w.history)-historySize:]
	}
	w.mu.Unlock()
}
