package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/pitchcast/internal/adapters/mq/worker"
	"github.com/okian/pitchcast/internal/domain/prediction"
)

const defaultMaxBatch = 256

// Predictor runs predictions.
type Predictor interface {
	Predict(ctx context.Context, req prediction.Request) (prediction.Report, error)
	PredictBatch(ctx context.Context, reqs []prediction.Request) ([]worker.Outcome, error)
}

// PredictHandler handles single and batch predictions.
type PredictHandler struct {
	deps     Predictor
	maxBatch int
}

// NewPredictHandler creates a prediction handler; maxBatch < 1 uses 256.
func NewPredictHandler(deps Predictor, maxBatch int) *PredictHandler {
	if maxBatch < 1 {
		maxBatch = defaultMaxBatch
	}
	return &PredictHandler{deps: deps, maxBatch: maxBatch}
}

// HandlePredict handles POST /predict.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req prediction.Request
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	rep, err := h.deps.Predict(r.Context(), req)
	if err != nil {
		if errors.Is(err, prediction.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type batchRequest struct {
	Matches []prediction.Request `json:"matches"`
}

type batchItem struct {
	Index  int                `json:"index"`
	Report *prediction.Report `json:"report,omitempty"`
	Error  string             `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
	Failed  int         `json:"failed"`
}

// HandleBatch handles POST /predict/batch. Each match succeeds or fails on
// its own; the response keeps the request order.
func (h *PredictHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	switch {
	case len(req.Matches) == 0:
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, errors.New("matches must not be empty")))
		return
	case len(req.Matches) > h.maxBatch:
		writeError(w, http.StatusBadRequest, "limit_exceeded",
			wrapKind(op, ErrBadRequest, fmt.Errorf("at most %d matches per batch", h.maxBatch)))
		return
	}

	outcomes, err := h.deps.PredictBatch(r.Context(), req.Matches)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}

	resp := batchResponse{Results: make([]batchItem, len(outcomes))}
	for i, o := range outcomes {
		item := batchItem{Index: o.Index}
		if o.Err != nil {
			item.Error = o.Err.Error()
			resp.Failed++
		} else {
			rep := o.Report
			item.Report = &rep
		}
		resp.Results[i] = item
	}
	writeJSON(w, http.StatusOK, resp)
}
