// Package aggregator fuses the base, refined, market and context signals
// into the final prediction.
//
// The pipeline is a pure function of its input. After every step the
// distribution is clamped to [0,100] and renormalized: in sports that
// allow a draw the draw value is kept and home/away share the rest, in
// other sports draw is forced to 0 and home/away share 100.
package aggregator

import (
	"github.com/okian/pitchcast/internal/domain/market"
	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/internal/domain/signal"
)

const (
	baseWeight    = 0.7
	refinedWeight = 0.3

	sharpAgree    = 1.05
	sharpDisagree = 0.92

	additiveScale = 5.0
	drawMargin    = 5.0
)

// Stage names reported by Explain.
const (
	StageBlend  = "blend"
	StageVortex = "vortex"
	StageSharp  = "sharp_money"
	StageSignal = "signal:"
)

// Input is everything the fusion needs for one match.
type Input struct {
	Sport         model.Sport
	Base          model.Distribution
	Refined       model.Distribution
	Market        market.Signal
	Signals       []signal.Signal
	ScorelineTop5 []model.ScoreProbability
}

// Stage records the distribution after one fusion step.
type Stage struct {
	Name         string             `json:"name"`
	Distribution model.Distribution `json:"distribution"`
}

// Aggregator runs the fusion pipeline.
type Aggregator struct {
	minConfidence float64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMinConfidence skips external signals below c.
func WithMinConfidence(c float64) Option {
	return func(a *Aggregator) {
		if c >= 0 {
			a.minConfidence = c
		}
	}
}

// New builds an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns the final prediction.
func (a *Aggregator) Aggregate(in Input) model.PredictionResult {
	res, _ := a.Explain(in)
	return res
}

// Explain returns the final prediction and the distribution after each step.
func (a *Aggregator) Explain(in Input) (model.PredictionResult, []Stage) {
	draws := in.Sport.AllowsDraw()
	stages := make([]Stage, 0, 3+len(in.Signals))
	record := func(name string, d model.Distribution) {
		stages = append(stages, Stage{Name: name, Distribution: d})
	}

	base := settle(in.Base, draws)
	refined := settle(in.Refined, draws)

	// 1. blend
	d := settle(model.Distribution{
		Home: baseWeight*base.Home + refinedWeight*refined.Home,
		Draw: base.Draw,
		Away: baseWeight*base.Away + refinedWeight*refined.Away,
	}, draws)
	record(StageBlend, d)

	// 2. vortex force on the side the base favors
	fav := base.Favored()
	v := in.Market.Velocity
	if fav == model.SideAway {
		v = -v
	}
	d = settle(d.With(fav, d.Get(fav)*market.VortexMultiplier(v)), draws)
	record(StageVortex, d)

	// 3. sharp money
	if in.Market.Sharp.Level == market.LevelCritical {
		fav = d.Favored()
		f := sharpDisagree
		if in.Market.Sharp.Direction == fav {
			f = sharpAgree
		}
		d = settle(d.With(fav, d.Get(fav)*f), draws)
		record(StageSharp, d)
	}

	// 4. external signals
	for _, s := range signal.Filter(in.Signals, a.minConfidence) {
		side := s.TargetSide()
		d = d.With(side, d.Get(side)+s.AdditiveDelta*additiveScale)
		if s.HasFactor() {
			fav = d.Favored()
			d = d.With(fav, d.Get(fav)*s.MultiplicativeFactor)
		}
		d = settle(d, draws)
		record(StageSignal+s.Name, d)
	}

	return finalize(d, draws, in.ScorelineTop5), stages
}

// settle clamps d and applies the renormalization rule.
func settle(d model.Distribution, draws bool) model.Distribution {
	d = d.Clamp()
	target := 100.0
	if draws {
		target -= d.Draw
	} else {
		d.Draw = 0
	}

	wins := d.Home + d.Away
	if wins <= 0 {
		d.Home, d.Away = target/2, target/2
		return d
	}
	f := target / wins
	d.Home *= f
	d.Away *= f
	return d
}

// finalize rounds d, picks the winner and the tier.
func finalize(d model.Distribution, draws bool, top5 []model.ScoreProbability) model.PredictionResult {
	home, draw, away := d.Rounded()
	res := model.PredictionResult{
		HomeWinProb:   home,
		DrawProb:      draw,
		AwayWinProb:   away,
		ScorelineTop5: top5,
	}
	if res.ScorelineTop5 == nil {
		res.ScorelineTop5 = []model.ScoreProbability{}
	}

	leader, lead := model.SideHome, home
	if away > home {
		leader, lead = model.SideAway, away
	}
	res.Winner = leader
	if draws && float64(lead) <= float64(draw)-drawMargin {
		res.Winner = model.SideDraw
	}

	res.MaxProb = max(home, draw, away)
	res.ConfidenceTier = model.TierFor(float64(res.MaxProb))
	return res
}
