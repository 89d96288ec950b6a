// Package scoreline models goal counts with independent Poisson
// distributions: exact grid probabilities, seeded Monte Carlo simulation,
// the most likely exact scores and total-goals lines.
package scoreline

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/pitchcast/internal/domain/model"
)

const (
	// DefaultStat substitutes an unknown scored or conceded average.
	DefaultStat = 1.2
	// DefaultLeagueAverage is used when no positive league average is given.
	DefaultLeagueAverage = 1.35

	gridMax   = 10
	matrixMax = 4
	topScores = 5
)

// PoissonPMF returns P(X = k) for X ~ Poisson(lambda).
func PoissonPMF(k int, lambda float64) float64 {
	if k < 0 {
		return 0
	}
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	lg, _ := math.Lgamma(float64(k + 1))
	return math.Exp(float64(k)*math.Log(lambda) - lambda - lg)
}

// GoalExpectancy derives expected goals for both sides from attack and
// defence strengths relative to the league average. Nil stats or
// non-positive averages fall back to DefaultStat. Home advantage is not
// applied here.
func GoalExpectancy(home, away *model.TeamStats, leagueAvg float64) (homeXG, awayXG float64) {
	if leagueAvg <= 0 {
		leagueAvg = DefaultLeagueAverage
	}
	hScored, hConceded := statsOrDefault(home)
	aScored, aConceded := statsOrDefault(away)

	homeAttack := hScored / leagueAvg
	homeDefense := hConceded / leagueAvg
	awayAttack := aScored / leagueAvg
	awayDefense := aConceded / leagueAvg

	return homeAttack * awayDefense * leagueAvg, awayAttack * homeDefense * leagueAvg
}

func statsOrDefault(s *model.TeamStats) (scored, conceded float64) {
	scored, conceded = DefaultStat, DefaultStat
	if s == nil {
		return scored, conceded
	}
	if s.ScoredAvg > 0 {
		scored = s.ScoredAvg
	}
	if s.ConcededAvg > 0 {
		conceded = s.ConcededAvg
	}
	return scored, conceded
}

// MatchProbabilities sums the joint Poisson mass over a 0..10 grid and
// buckets it into home win, draw and away win. The truncated tail is
// redistributed proportionally so the result sums to 100.
func MatchProbabilities(homeXG, awayXG float64) model.Distribution {
	var d model.Distribution
	for h := 0; h <= gridMax; h++ {
		ph := PoissonPMF(h, homeXG)
		for a := 0; a <= gridMax; a++ {
			p := ph * PoissonPMF(a, awayXG)
			switch {
			case h > a:
				d.Home += p
			case h == a:
				d.Draw += p
			default:
				d.Away += p
			}
		}
	}
	return d.Normalize()
}

// ScoreMatrix returns the five most likely exact scores over a 0..4 grid,
// ordered by probability desc then score asc. Probabilities are percent
// rounded to two decimals.
func ScoreMatrix(homeXG, awayXG float64) []model.ScoreProbability {
	all := make([]model.ScoreProbability, 0, (matrixMax+1)*(matrixMax+1))
	for h := 0; h <= matrixMax; h++ {
		ph := PoissonPMF(h, homeXG)
		for a := 0; a <= matrixMax; a++ {
			all = append(all, model.ScoreProbability{
				Score:       fmt.Sprintf("%d-%d", h, a),
				Probability: ph * PoissonPMF(a, awayXG) * 100,
			})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Probability != all[j].Probability {
			return all[i].Probability > all[j].Probability
		}
		return all[i].Score < all[j].Score
	})

	top := all[:topScores]
	for i := range top {
		top[i].Probability = math.Round(top[i].Probability*100) / 100
	}
	return top
}

// OverProbability returns P(total goals > line) in percent. The total of
// two independent Poisson counts is Poisson(homeXG + awayXG).
func OverProbability(homeXG, awayXG, line float64) float64 {
	if line < 0 {
		return 100
	}
	lambda := homeXG + awayXG
	var under float64
	for k := 0; float64(k) <= line; k++ {
		under += PoissonPMF(k, lambda)
	}
	return math.Max(0, math.Min(100, (1-under)*100))
}
