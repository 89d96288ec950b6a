package api

import (
	"errors"
	"net/http"

	"github.com/okian/pitchcast/internal/domain/parlay"
	"github.com/okian/pitchcast/internal/domain/stake"
	"github.com/shopspring/decimal"
)

// BettingHandler serves the downstream parlay and stake helpers.
type BettingHandler struct {
	selector *parlay.Selector
	sizer    *stake.Sizer
}

// NewBettingHandler creates a betting handler.
func NewBettingHandler(sel *parlay.Selector, sizer *stake.Sizer) *BettingHandler {
	return &BettingHandler{selector: sel, sizer: sizer}
}

type parlayRequest struct {
	Risk       parlay.Risk        `json:"risk"`
	Candidates []parlay.Candidate `json:"candidates"`
}

// HandleParlay handles POST /parlay.
func (h *BettingHandler) HandleParlay(w http.ResponseWriter, r *http.Request) {
	const op = "api.parlay"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req parlayRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	ticket, err := h.selector.Select(req.Candidates, req.Risk)
	switch {
	case errors.Is(err, parlay.ErrUnknownRisk):
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	case errors.Is(err, parlay.ErrNoParlay):
		writeError(w, http.StatusUnprocessableEntity, "no_parlay", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

type stakeRequest struct {
	Odds        float64         `json:"odds"`
	Probability float64         `json:"probability"`
	Bankroll    decimal.Decimal `json:"bankroll"`
}

// HandleStake handles POST /stake. Probability is in [0,1].
func (h *BettingHandler) HandleStake(w http.ResponseWriter, r *http.Request) {
	const op = "api.stake"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req stakeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	st, err := h.sizer.Size(req.Odds, req.Probability, req.Bankroll)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
