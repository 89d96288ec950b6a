// Package parlay builds multi-leg tickets from finished predictions.
package parlay

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Risk names a ticket policy.
type Risk string

const (
	RiskSafe       Risk = "safe"
	RiskBalanced   Risk = "balanced"
	RiskAggressive Risk = "aggressive"
)

// MinLegs is the smallest ticket the selector will build.
const MinLegs = 3

// Policy is the minimum leg confidence (percent) and the target leg count.
type Policy struct {
	MinConfidence int `json:"min_confidence"`
	Legs          int `json:"legs"`
}

// Candidate is one predicted match offered to the selector.
type Candidate struct {
	MatchID string                 `json:"match_id"`
	Result  model.PredictionResult `json:"result"`
	Odds    model.Odds             `json:"odds"`
}

// Leg is a selected pick.
type Leg struct {
	MatchID    string          `json:"match_id"`
	Pick       model.Side      `json:"pick"`
	Confidence int             `json:"confidence"`
	Price      decimal.Decimal `json:"price"`
}

// Ticket is a parlay. JointProbability is the plain product of the leg
// probabilities, in [0,1].
type Ticket struct {
	Risk             Risk            `json:"risk"`
	Legs             []Leg           `json:"legs"`
	CombinedOdds     decimal.Decimal `json:"combined_odds"`
	JointProbability decimal.Decimal `json:"joint_probability"`
}

// Selector picks parlay legs per risk tier.
type Selector struct {
	policies map[Risk]Policy
}

// Option configures a Selector.
type Option func(*Selector)

// WithPolicy overrides the policy of one risk tier.
func WithPolicy(r Risk, p Policy) Option {
	return func(s *Selector) {
		if p.Legs >= MinLegs && p.MinConfidence >= 0 && p.MinConfidence <= 100 {
			s.policies[r] = p
		}
	}
}

// NewSelector builds a Selector with the default tiers.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{policies: map[Risk]Policy{
		RiskSafe:       {MinConfidence: 78, Legs: 3},
		RiskBalanced:   {MinConfidence: 68, Legs: 4},
		RiskAggressive: {MinConfidence: 58, Legs: 5},
	}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the policy for r.
func (s *Selector) Policy(r Risk) (Policy, bool) {
	p, ok := s.policies[Risk(strings.ToLower(string(r)))]
	return p, ok
}

// Select keeps candidates whose winning side reaches the tier's confidence
// and has a usable price, takes the most confident ones up to the tier's
// leg count and multiplies their prices. Ties on confidence are broken by
// match id. A match offered twice is used once.
func (s *Selector) Select(candidates []Candidate, risk Risk) (Ticket, error) {
	policy, ok := s.Policy(risk)
	if !ok {
		return Ticket{}, fmt.Errorf("%w: %q", ErrUnknownRisk, risk)
	}

	seen := make(map[string]struct{}, len(candidates))
	legs := make([]Leg, 0, len(candidates))
	for _, c := range candidates {
		if c.MatchID == "" {
			continue
		}
		if _, dup := seen[c.MatchID]; dup {
			continue
		}
		conf := confidenceOf(c.Result)
		price := c.Odds.PriceFor(c.Result.Winner)
		if conf < policy.MinConfidence || price <= 1 {
			continue
		}
		seen[c.MatchID] = struct{}{}
		legs = append(legs, Leg{
			MatchID:    c.MatchID,
			Pick:       c.Result.Winner,
			Confidence: conf,
			Price:      decimal.NewFromFloat(price),
		})
	}
	if len(legs) < MinLegs {
		return Ticket{}, fmt.Errorf("%w: %d of %d needed at %d%%", ErrNoParlay, len(legs), MinLegs, policy.MinConfidence)
	}

	slices.SortStableFunc(legs, func(a, b Leg) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		return cmp.Compare(a.MatchID, b.MatchID)
	})
	if len(legs) > policy.Legs {
		legs = legs[:policy.Legs]
	}

	hundred := decimal.NewFromInt(100)
	t := Ticket{
		Risk:             Risk(strings.ToLower(string(risk))),
		Legs:             legs,
		CombinedOdds:     decimal.NewFromInt(1),
		JointProbability: decimal.NewFromInt(1),
	}
	for _, l := range legs {
		t.CombinedOdds = t.CombinedOdds.Mul(l.Price)
		t.JointProbability = t.JointProbability.Mul(decimal.NewFromInt(int64(l.Confidence)).Div(hundred))
	}
	t.CombinedOdds = t.CombinedOdds.Round(2)
	t.JointProbability = t.JointProbability.Round(4)
	return t, nil
}

// confidenceOf is the probability of the predicted winner.
func confidenceOf(r model.PredictionResult) int {
	switch r.Winner {
	case model.SideHome:
		return r.HomeWinProb
	case model.SideDraw:
		return r.DrawProb
	case model.SideAway:
		return r.AwayWinProb
	}
	return 0
}
