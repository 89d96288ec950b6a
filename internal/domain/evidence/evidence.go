// Package evidence reweights a base distribution with market and form
// evidence.
package evidence

import (
	"strings"

	"github.com/okian/pitchcast/internal/domain/model"
)

const (
	velocityThreshold = 0.05
	velocityWeight    = 0.15
	momentumHigh      = 0.7
	momentumLow       = 0.3
	momentumWeight    = 0.10

	formWindow = 5
	neutral    = 0.5
)

// Evidence is the input to Refine. MomentumScore is in [0,1]; 0.5 is neutral.
type Evidence struct {
	MarketVelocity float64 `json:"market_velocity"`
	MomentumScore  float64 `json:"momentum_score"`
}

// Likelihood returns the multiplier Refine applies to the favored side.
func Likelihood(ev Evidence) float64 {
	l := 1.0
	switch {
	case ev.MarketVelocity > velocityThreshold:
		l += velocityWeight
	case ev.MarketVelocity < -velocityThreshold:
		l -= velocityWeight
	}
	switch {
	case ev.MomentumScore > momentumHigh:
		l += momentumWeight
	case ev.MomentumScore < momentumLow:
		l -= momentumWeight
	}
	return l
}

// Refine multiplies the favored side (home when home >= away) by the
// evidence likelihood and renormalizes to 100. The other two components
// are left as they are before renormalization.
func Refine(base model.Distribution, ev Evidence) model.Distribution {
	base = base.Clamp()
	side := base.Favored()
	return base.With(side, base.Get(side)*Likelihood(ev)).Normalize()
}

// MomentumFromForm scores a results string such as "WDLWW" (most recent
// last) in [0,1] over the last five results: W=3, D=1, L=0. Unknown
// characters are ignored; an empty form scores 0.5.
func MomentumFromForm(form string) float64 {
	points, games := formPoints(form)
	if games == 0 {
		return neutral
	}
	return float64(points) / float64(3*games)
}

// MatchMomentum is the home share of recent form points, in [0,1].
// It is 0.5 when neither side has points.
func MatchMomentum(homeForm, awayForm string) float64 {
	hp, _ := formPoints(homeForm)
	ap, _ := formPoints(awayForm)
	if hp+ap == 0 {
		return neutral
	}
	return float64(hp) / float64(hp+ap)
}

func formPoints(form string) (points, games int) {
	results := make([]int, 0, len(form))
	for _, r := range strings.ToUpper(form) {
		switch r {
		case 'W':
			results = append(results, 3)
		case 'D':
			results = append(results, 1)
		case 'L':
			results = append(results, 0)
		}
	}
	if len(results) > formWindow {
		results = results[len(results)-formWindow:]
	}
	for _, p := range results {
		points += p
	}
	return points, len(results)
}
