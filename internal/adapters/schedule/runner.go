// Package schedule runs periodic jobs, chiefly retraining the ratings from
// the history file the data collector keeps up to date.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/robfig/cron/v3"
)

// HistorySource is the job source name used for scheduled training.
const HistorySource = "schedule"

// Runner wraps a seconds-resolution cron.
type Runner struct {
	cron    *cron.Cron
	logger  logger.Logger
	baseCtx context.Context
}

// New creates a runner whose jobs receive baseCtx.
func New(l logger.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds()),
		logger:  l.Named("schedule"),
		baseCtx: baseCtx,
	}
}

// Add registers job under a six-field cron spec.
func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	id, err := r.cron.AddFunc(spec, func() { job(r.baseCtx) })
	if err != nil {
		return 0, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return id, nil
}

// Entries returns the number of registered jobs.
func (r *Runner) Entries() int {
	return len(r.cron.Entries())
}

// Start runs the scheduler in the background.
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info(r.baseCtx, "cron started", logger.Int("jobs", r.Entries()))
}

// Stop waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info(r.baseCtx, "cron stopped")
}

// SubmitFunc hands records to the training queue.
type SubmitFunc func(ctx context.Context, source string, records []model.MatchRecord) error

// LoadHistory reads a JSON array of match records.
func LoadHistory(path string) ([]model.MatchRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", path, err)
	}
	var records []model.MatchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	return records, nil
}

// HistoryJob returns a job that loads path and submits it for training.
// A missing file is logged at debug and skipped.
func HistoryJob(path string, submit SubmitFunc, l logger.Logger) func(context.Context) {
	if l == nil {
		l = logger.Discard()
	}
	return func(ctx context.Context) {
		records, err := LoadHistory(path)
		if errors.Is(err, os.ErrNotExist) {
			l.Debug(ctx, "history file absent", logger.String("path", path))
			return
		}
		if err != nil {
			l.Error(ctx, "history load failed", logger.Error(err))
			return
		}
		if err := submit(ctx, HistorySource, records); err != nil {
			l.Warn(ctx, "history submit failed",
				logger.String("path", path),
				logger.Int("records", len(records)),
				logger.Error(err))
			return
		}
		l.Info(ctx, "history submitted",
			logger.String("path", path),
			logger.Int("records", len(records)))
	}
}
