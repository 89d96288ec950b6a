package model

// Tier buckets the maximum outcome probability.
type Tier string

const (
	TierDiamond Tier = "diamond"
	TierGold    Tier = "gold"
	TierSilver  Tier = "silver"
)

// TierFor maps a maximum probability (percent) to a tier.
func TierFor(maxProb float64) Tier {
	switch {
	case maxProb > 70:
		return TierDiamond
	case maxProb > 55:
		return TierGold
	default:
		return TierSilver
	}
}

// ScoreProbability is one exact scoreline, e.g. "2-1", with its probability in percent.
type ScoreProbability struct {
	Score       string  `json:"score"`
	Probability float64 `json:"probability"`
}

// PredictionResult is the final, integer-valued outcome of the pipeline.
// HomeWinProb+DrawProb+AwayWinProb is exactly 100.
type PredictionResult struct {
	HomeWinProb    int                `json:"home_win_prob"`
	DrawProb       int                `json:"draw_prob"`
	AwayWinProb    int                `json:"away_win_prob"`
	Winner         Side               `json:"winner"`
	MaxProb        int                `json:"max_prob"`
	ConfidenceTier Tier               `json:"confidence_tier"`
	ScorelineTop5  []ScoreProbability `json:"scoreline_top5"`
}
