package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/internal/domain/rating"
)

const (
	maxLeaderboard     = 1000
	defaultLeaderboard = 20
)

// Ratings exposes the rating leaderboard.
type Ratings interface {
	TopN(n int) ([]model.RankedTeam, error)
	Rank(teamID string) (model.RankedTeam, error)
}

// RatingsHandler handles rating reads.
type RatingsHandler struct {
	deps     Ratings
	maxLimit int
}

// NewRatingsHandler creates a ratings handler.
func NewRatingsHandler(deps Ratings, maxLimit int) *RatingsHandler {
	return &RatingsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleTop handles GET /ratings?limit=N.
func (h *RatingsHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.ratings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := defaultLeaderboard
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", wrapKind(op, ErrBadRequest, nil))
		return
	}
	teams, err := h.deps.TopN(n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleTeam handles GET /ratings/{team_id}. Only trained teams are known.
func (h *RatingsHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.rating"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/ratings/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, nil))
		return
	}
	team, err := h.deps.Rank(id)
	if err != nil {
		if errors.Is(err, rating.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}
