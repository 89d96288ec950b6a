// Package prediction runs the full per-match pipeline: rating and
// scoreline base, market reading, evidence refinement and fusion.
// Predictions only read the rating store and are safe to run in parallel.
package prediction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/pitchcast/internal/domain/aggregator"
	"github.com/okian/pitchcast/internal/domain/evidence"
	"github.com/okian/pitchcast/internal/domain/market"
	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/internal/domain/scoreline"
	"github.com/okian/pitchcast/internal/domain/signal"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

// Ratings is the part of the rating store the engine reads. Neither call
// may register a team.
type Ratings interface {
	RatingOrDefault(teamID string) float64
	WinProbability(homeID, awayID string, sport model.Sport) model.Distribution
}

// Request is one match to predict.
type Request struct {
	Sport   model.Sport     `json:"sport"`
	Home    model.TeamInput `json:"home"`
	Away    model.TeamInput `json:"away"`
	Odds    model.Odds      `json:"odds"`
	Signals []signal.Signal `json:"signals,omitempty"`
}

// Validate checks the request before any work is done.
func (r Request) Validate() error {
	if strings.TrimSpace(string(r.Sport)) == "" {
		return fmt.Errorf("%w: sport is required", ErrInvalidRequest)
	}
	if r.Home.ID == "" || r.Away.ID == "" {
		return fmt.Errorf("%w: home.id and away.id are required", ErrInvalidRequest)
	}
	if r.Home.ID == r.Away.ID {
		return fmt.Errorf("%w: a team cannot play itself", ErrInvalidRequest)
	}
	for _, s := range r.Signals {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return nil
}

// Details carries the intermediate values behind a result for audit.
type Details struct {
	HomeRating float64             `json:"home_rating"`
	AwayRating float64             `json:"away_rating"`
	Elo        model.Distribution  `json:"elo"`
	Base       model.Distribution  `json:"base"`
	Refined    model.Distribution  `json:"refined"`
	Momentum   float64             `json:"momentum"`
	Market     market.Signal       `json:"market"`
	Margin     float64             `json:"margin"`
	Fair       *model.Distribution `json:"fair,omitempty"`
	Scoreline  *scoreline.Forecast `json:"scoreline,omitempty"`
	Stages     []aggregator.Stage  `json:"stages"`
}

// Report is a prediction with its audit trail.
type Report struct {
	model.PredictionResult
	Details Details `json:"details"`
}

// Engine produces predictions.
type Engine struct {
	ratings   Ratings
	scores    *scoreline.Model
	agg       *aggregator.Aggregator
	providers []signal.Provider
	logger    logger.Logger
}

// NewEngine builds an engine over a rating store.
func NewEngine(ratings Ratings, opts ...Option) *Engine {
	e := &Engine{
		ratings: ratings,
		scores:  scoreline.New(),
		agg:     aggregator.New(),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Predict runs the pipeline for one match. It fails only on an invalid
// request.
func (e *Engine) Predict(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		metrics.RecordPredictionError()
		return Report{}, err
	}
	sport := req.Sport.Normalize()

	d := Details{
		HomeRating: e.ratings.RatingOrDefault(req.Home.ID),
		AwayRating: e.ratings.RatingOrDefault(req.Away.ID),
		Elo:        e.ratings.WinProbability(req.Home.ID, req.Away.ID, sport),
	}

	d.Base = d.Elo.Normalize()
	var top5 []model.ScoreProbability
	if sport.IsLowScoring() {
		f := e.scores.Forecast(req.Home.Stats, req.Away.Stats)
		d.Scoreline = &f
		d.Base = blendBase(d.Elo, f.Exact, sport.AllowsDraw())
		top5 = f.Top5
	}

	d.Market = market.Analyze(req.Odds)
	d.Margin = market.Margin(req.Odds)
	if fair, ok := market.FairProbabilities(req.Odds); ok {
		d.Fair = &fair
	}

	d.Momentum = evidence.MatchMomentum(req.Home.Form, req.Away.Form)
	d.Refined = evidence.Refine(d.Base, evidence.Evidence{
		MarketVelocity: d.Market.Velocity,
		MomentumScore:  d.Momentum,
	})

	signals := append([]signal.Signal{}, req.Signals...)
	if len(e.providers) > 0 {
		signals = append(signals, signal.Collect(ctx, e.logger, e.providers, signal.Match{
			Sport: sport, HomeID: req.Home.ID, AwayID: req.Away.ID,
		})...)
	}

	res, stages := e.agg.Explain(aggregator.Input{
		Sport:         sport,
		Base:          d.Base,
		Refined:       d.Refined,
		Market:        d.Market,
		Signals:       signals,
		ScorelineTop5: top5,
	})
	d.Stages = stages

	metrics.RecordPrediction(string(sport), string(res.ConfidenceTier))
	metrics.RecordPredictionLatency(float64(time.Since(start).Microseconds()) / 1000)
	e.logger.Debug(ctx, "prediction produced",
		logger.String("sport", string(sport)),
		logger.String("home", req.Home.ID),
		logger.String("away", req.Away.ID),
		logger.String("winner", string(res.Winner)),
		logger.Int("max_prob", res.MaxProb))

	return Report{PredictionResult: res, Details: d}, nil
}

// blendBase averages the ELO and Poisson distributions. In sports without
// draws the Poisson draw mass is shared out between home and away first.
func blendBase(elo, poisson model.Distribution, draws bool) model.Distribution {
	elo = elo.Normalize()
	if !draws {
		wins := poisson.Home + poisson.Away
		if wins > 0 {
			poisson = model.Distribution{
				Home: poisson.Home / wins * 100,
				Away: poisson.Away / wins * 100,
			}
		}
	}
	return model.Distribution{
		Home: (elo.Home + poisson.Home) / 2,
		Draw: (elo.Draw + poisson.Draw) / 2,
		Away: (elo.Away + poisson.Away) / 2,
	}.Normalize()
}
