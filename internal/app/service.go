// Package service wires the rating store, prediction engine, training
// queue and workers into the dependencies the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/pitchcast/internal/adapters/http/api"
	"github.com/okian/pitchcast/internal/adapters/mq/queue"
	"github.com/okian/pitchcast/internal/adapters/mq/worker"
	"github.com/okian/pitchcast/internal/adapters/schedule"
	"github.com/okian/pitchcast/internal/adapters/storage"
	"github.com/okian/pitchcast/internal/config"
	"github.com/okian/pitchcast/internal/domain/aggregator"
	"github.com/okian/pitchcast/internal/domain/dedupe"
	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/internal/domain/prediction"
	"github.com/okian/pitchcast/internal/domain/rating"
	"github.com/okian/pitchcast/internal/domain/scoreline"
	"github.com/okian/pitchcast/internal/domain/signal"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

// ErrNotStarted is returned by calls made before Start or after Stop.
var ErrNotStarted = errors.New("service not started")

const stopTimeout = 10 * time.Second

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	cfg       *config.Config
	backend   storage.Backend
	ownsStore bool
	providers []signal.Provider
	clock     func() time.Time

	store   *rating.Store
	deduper dedupe.Deduper
	jobs    queue.Queue
	trainer *worker.Trainer
	pool    *worker.Pool
	engine  *prediction.Engine
	cron    *schedule.Runner

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBackend uses b instead of the backend named by the config. The
// caller keeps ownership: Stop does not close b.
func WithBackend(b storage.Backend) Option {
	return func(s *Service) {
		s.backend = b
		s.ownsStore = false
	}
}

// WithProviders registers signal providers consulted on every prediction.
func WithProviders(p ...signal.Provider) Option {
	return func(s *Service) {
		s.providers = append(s.providers, p...)
	}
}

// WithClock overrides the rating store clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = now
	}
}

// New constructs a Service; nil cfg means defaults.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage, restores ratings and starts the workers. A storage
// failure does not stop the service: it runs in memory, degraded.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	cfg := s.cfg
	s.logger.Info(ctx, "starting pitchcast service", logger.String("storage", cfg.StorageDriver))

	if s.backend == nil {
		b, err := storage.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		s.backend = b
		s.ownsStore = true
	}

	storeOpts := []rating.Option{
		rating.WithStorage(s.backend),
		rating.WithCooldown(cfg.TrainCooldown),
		rating.WithLogger(s.logger.Named("rating")),
	}
	if s.clock != nil {
		storeOpts = append(storeOpts, rating.WithClock(s.clock))
	}
	s.store = rating.NewStore(storeOpts...)
	if err := s.store.Load(ctx); err != nil {
		s.logger.Warn(ctx, "continuing without persisted ratings", logger.Error(err))
	}

	s.engine = prediction.NewEngine(s.store,
		prediction.WithScoreline(scoreline.New(
			scoreline.WithLeagueAverage(cfg.LeagueAvgGoals),
			scoreline.WithIterations(cfg.MonteCarloIterations),
			scoreline.WithSeed(cfg.MonteCarloSeed),
			scoreline.WithParallelism(cfg.MonteCarloWorkers),
		)),
		prediction.WithAggregator(aggregator.New(aggregator.WithMinConfidence(cfg.MinSignalConfidence))),
		prediction.WithProviders(s.providers...),
		prediction.WithLogger(s.logger.Named("prediction")),
	)

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(cfg.TrainQueueSize))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.cron = nil
	if cfg.TrainSchedule != "" && cfg.HistoryPath != "" {
		s.cron = schedule.New(s.logger, runCtx)
		submit := func(ctx context.Context, source string, records []model.MatchRecord) error {
			_, err := s.SubmitTraining(ctx, source, records)
			return err
		}
		if _, err := s.cron.Add(cfg.TrainSchedule, schedule.HistoryJob(cfg.HistoryPath, submit, s.logger)); err != nil {
			cancel()
			s.closeOwnedBackend(ctx)
			return err
		}
	}

	s.trainer = worker.NewTrainer(s.jobs, s.store,
		worker.WithLogger(s.logger),
		worker.WithOnResult(s.afterTraining))
	go s.trainer.Run(runCtx)

	s.pool = worker.NewPool(cfg.WorkerCount, s.engine, s.logger)
	s.pool.Start()

	if s.cron != nil {
		s.cron.Start()
	}

	s.started = true
	s.logger.Info(ctx, "pitchcast service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", cfg.TrainQueueSize),
		logger.Int("dedupeSize", cfg.DedupeSize),
		logger.Int("teams", s.store.Count()),
		logger.Bool("degraded", s.store.Degraded()))
	return nil
}

// Stop drains the workers and closes storage.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping pitchcast service...")

	if s.cron != nil {
		s.cron.Stop()
	}
	_ = s.jobs.Close()
	if err := s.trainer.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "trainer did not stop cleanly", logger.Error(err))
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "prediction pool did not stop cleanly", logger.Error(err))
	}
	s.cancel()
	s.closeOwnedBackend(ctx)
	s.logger.Info(ctx, "pitchcast service stopped")
}

func (s *Service) closeOwnedBackend(ctx context.Context) {
	if !s.ownsStore {
		return
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Warn(ctx, "storage close failed", logger.Error(err))
	}
	s.backend, s.ownsStore = nil, false
}

// afterTraining lets records that did not reach the ratings be submitted
// again.
func (s *Service) afterTraining(ctx context.Context, job queue.Job, report rating.TrainReport, err error) {
	if err != nil || report.Outcome == rating.OutcomeCooldown {
		dedupe.Forget(ctx, s.deduper, job.Records)
	}
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Predict runs one prediction.
func (s *Service) Predict(ctx context.Context, req prediction.Request) (prediction.Report, error) {
	if !s.running() {
		return prediction.Report{}, ErrNotStarted
	}
	return s.engine.Predict(ctx, req)
}

// PredictBatch fans reqs out over the prediction pool.
func (s *Service) PredictBatch(ctx context.Context, reqs []prediction.Request) ([]worker.Outcome, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.pool.PredictAll(ctx, reqs)
}

// SubmitTraining drops records already accepted and queues the rest as
// one job. Records of a rejected job are forgotten so a retry can use them.
func (s *Service) SubmitTraining(ctx context.Context, source string, records []model.MatchRecord) (api.TrainAck, error) {
	if !s.running() {
		return api.TrainAck{}, ErrNotStarted
	}

	fresh, dup := dedupe.Fresh(ctx, s.deduper, records)
	ack := api.TrainAck{Accepted: len(fresh), Duplicates: dup}
	if len(fresh) == 0 {
		ack.Status = "duplicate"
		if len(records) == 0 {
			ack.Status = rating.OutcomeEmpty
		}
		return ack, nil
	}

	job := queue.NewJob(source, fresh)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		dedupe.Forget(ctx, s.deduper, fresh)
		s.logger.Warn(ctx, "training job rejected",
			logger.String("source", source),
			logger.Int("records", len(fresh)),
			logger.Error(err))
		return api.TrainAck{}, err
	}

	ack.Status = "accepted"
	ack.JobID = job.ID
	s.logger.Debug(ctx, "training job queued",
		logger.String("job_id", job.ID),
		logger.String("source", source),
		logger.Int("records", len(fresh)),
		logger.Int("duplicates", dup))
	return ack, nil
}

// TrainingResult looks up a finished job.
func (s *Service) TrainingResult(jobID string) (worker.JobResult, bool) {
	if !s.running() {
		return worker.JobResult{}, false
	}
	return s.trainer.Result(jobID)
}

// TopN returns the rating leaderboard.
func (s *Service) TopN(n int) ([]model.RankedTeam, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.store.TopN(n)
}

// Rank returns one team's leaderboard row.
func (s *Service) Rank(teamID string) (model.RankedTeam, error) {
	if !s.running() {
		return model.RankedTeam{}, ErrNotStarted
	}
	return s.store.Rank(teamID)
}

// Store exposes the rating store.
func (s *Service) Store() *rating.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"storageDriver": s.cfg.StorageDriver,
		"workerCount":   s.cfg.WorkerCount,
		"queueCapacity": s.cfg.TrainQueueSize,
		"dedupeSize":    s.cfg.DedupeSize,
	}
	if !s.started {
		return stats
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	stats["queueLength"] = s.jobs.Len()
	stats["dedupeEntries"] = s.deduper.Size()
	stats["teams"] = s.store.Count()
	stats["degraded"] = s.store.Degraded()
	if lt := s.store.LastTrained(); !lt.IsZero() {
		stats["lastTrained"] = lt.UTC().Format(time.RFC3339)
	}
	if recent := s.trainer.Results(); len(recent) > 0 {
		stats["lastJob"] = recent[0]
	}
	return stats
}
