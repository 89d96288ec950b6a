package market

import "github.com/okian/pitchcast/internal/domain/model"

// Margin returns the bookmaker overround in percent, e.g. 5.3 for a book
// whose implied probabilities sum to 1.053. Unpriced outcomes are ignored.
func Margin(odds model.Odds) float64 {
	sum := ImpliedProb(odds.Home) + ImpliedProb(odds.Draw) + ImpliedProb(odds.Away)
	if sum == 0 {
		return 0
	}
	return (sum - 1) * 100
}

// FairProbabilities strips the overround from the current prices and
// returns the margin-free distribution. A two-way market (no draw price)
// yields draw 0. The second result is false when home or away is unpriced.
func FairProbabilities(odds model.Odds) (model.Distribution, bool) {
	h, d, a := ImpliedProb(odds.Home), ImpliedProb(odds.Draw), ImpliedProb(odds.Away)
	if h == 0 || a == 0 {
		return model.Distribution{}, false
	}
	total := h + d + a
	return model.Distribution{
		Home: h / total * 100,
		Draw: d / total * 100,
		Away: a / total * 100,
	}, true
}
