package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/pitchcast/internal/adapters/mq/queue"
	"github.com/okian/pitchcast/internal/adapters/mq/worker"
	"github.com/okian/pitchcast/internal/domain/model"
)

// TrainAck is the reply to an accepted training submission.
type TrainAck struct {
	Status     string `json:"status"`
	JobID      string `json:"job_id,omitempty"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
}

// Trainer accepts training batches.
type Trainer interface {
	// SubmitTraining queues records for the trainer. It fails with
	// queue.ErrQueueFull under backpressure.
	SubmitTraining(ctx context.Context, source string, records []model.MatchRecord) (TrainAck, error)
	TrainingResult(jobID string) (worker.JobResult, bool)
}

// TrainHandler handles training submissions.
type TrainHandler struct {
	deps Trainer
}

// NewTrainHandler creates a training handler.
func NewTrainHandler(deps Trainer) *TrainHandler {
	return &TrainHandler{deps: deps}
}

// HandleTrain handles POST /train with a JSON array of match records.
func (h *TrainHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.train"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var records []model.MatchRecord
	if err := decode(w, r, &records); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.SubmitTraining(r.Context(), "api", records)
	switch {
	case errors.Is(err, queue.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", wrapKind(op, ErrBackpressure, err))
		return
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// HandleJob handles GET /train/{job_id}.
func (h *TrainHandler) HandleJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.train_job"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/train/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, nil))
		return
	}
	res, ok := h.deps.TrainingResult(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
