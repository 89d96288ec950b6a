// Package rating implements the ELO team-strength store.
//
// Readers observe an immutable snapshot published through an atomic
// pointer. Training builds a working copy, applies a chronologically
// sorted batch sequentially and swaps the copy in as a whole, so a reader
// sees either the pre-training or the post-training rating set.
package rating

import (
	"math"

	"github.com/okian/pitchcast/internal/domain/model"
)

// Home advantage in rating points by sport family.
const (
	basketballHomeBonus = 50.0
	soccerHomeBonus     = 25.0
	otherHomeBonus      = 15.0
)

const (
	baseK        = 32.0
	minDrawPct   = 10.0
	drawBasePct  = 26.0
	drawGapScale = 25.0
)

// ExpectedScore is the logistic probability that a team rated a beats a
// team rated b.
func ExpectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// HomeBonus returns the rating points added to the home side.
func HomeBonus(sport model.Sport) float64 {
	switch {
	case sport.IsBasketballFamily():
		return basketballHomeBonus
	case sport.IsSoccerFamily():
		return soccerHomeBonus
	default:
		return otherHomeBonus
	}
}

// KFactor scales the update by the margin of victory.
func KFactor(goalDiff int) float64 {
	return baseK * (math.Log(math.Abs(float64(goalDiff))+1) + 1)
}

// outcome is the home side's actual score: 1 win, 0.5 draw, 0 loss.
func outcome(homeGoals, awayGoals int) float64 {
	switch {
	case homeGoals > awayGoals:
		return 1
	case homeGoals == awayGoals:
		return 0.5
	default:
		return 0
	}
}

// distribution turns two ratings into whole-percent outcome probabilities.
// home must already include the home bonus.
func distribution(home, away float64, sport model.Sport) model.Distribution {
	exp := ExpectedScore(home, away)
	if !sport.AllowsDraw() {
		return model.Distribution{
			Home: math.Round(exp * 100),
			Away: math.Round((1 - exp) * 100),
		}
	}

	draw := math.Max(minDrawPct, drawBasePct-math.Abs(home-away)/drawGapScale)
	rest := 100 - draw
	return model.Distribution{
		Home: math.Round(exp * rest),
		Draw: math.Round(draw),
		Away: math.Round((1 - exp) * rest),
	}
}
