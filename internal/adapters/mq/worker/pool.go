package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/okian/pitchcast/internal/domain/prediction"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

// ErrStopped is returned for work submitted after Shutdown.
var ErrStopped = errors.New("worker pool stopped")

// Predictor runs one prediction.
type Predictor interface {
	Predict(ctx context.Context, req prediction.Request) (prediction.Report, error)
}

// Outcome is the result for one request of a batch, at its input index.
type Outcome struct {
	Index  int               `json:"index"`
	Report prediction.Report `json:"report"`
	Err    error             `json:"-"`
}

type task struct {
	ctx   context.Context
	index int
	req   prediction.Request
	out   chan<- Outcome
}

// Pool fans batch predictions out over a fixed set of goroutines.
type Pool struct {
	predictor Predictor
	size      int
	tasks     chan task

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	logger logger.Logger
}

// NewPool creates a pool of size workers; size < 1 means 2 per CPU.
func NewPool(size int, predictor Predictor, l logger.Logger) *Pool {
	if size < 1 {
		size = runtime.NumCPU() * 2
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Pool{
		predictor: predictor,
		size:      size,
		tasks:     make(chan task, size),
		logger:    l.Named("prediction-pool"),
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the workers.
func (p *Pool) Start() {
	p.wg.Add(p.size)
	for range p.size {
		go p.run()
	}
	metrics.UpdateWorkerCount(p.size + 1)
}

func (p *Pool) run() {
	defer p.wg.Done()
	for t := range p.tasks {
		start := time.Now()
		metrics.AddWorkerActive(1)
		var o Outcome
		if err := t.ctx.Err(); err != nil {
			o = Outcome{Index: t.index, Err: err}
		} else {
			rep, err := p.predictor.Predict(t.ctx, t.req)
			o = Outcome{Index: t.index, Report: rep, Err: err}
		}
		if o.Err != nil {
			metrics.RecordWorkerError()
		}
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		t.out <- o
	}
}

// PredictAll runs every request and returns outcomes in input order.
func (p *Pool) PredictAll(ctx context.Context, reqs []prediction.Request) ([]Outcome, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return nil, ErrStopped
	}

	out := make(chan Outcome, len(reqs))
	go func() {
		for i, r := range reqs {
			p.tasks <- task{ctx: ctx, index: i, req: r, out: out}
		}
	}()

	results := make([]Outcome, len(reqs))
	for range reqs {
		o := <-out
		results[o.Index] = o
	}
	return results, nil
}

// Shutdown waits for in-flight batches and stops the workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "pool shutdown timed out")
		return ctx.Err()
	}
}
