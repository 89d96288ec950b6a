// Package market turns a match's odds history into drift and sharp-money
// signals. Every function is a pure function of the prices it is given.
package market

import (
	"math"

	"github.com/okian/pitchcast/internal/domain/model"
)

// Level grades the strength of a market move.
type Level string

const (
	LevelCritical    Level = "critical"
	LevelSignificant Level = "significant"
	LevelNeutral     Level = "neutral"
	LevelLow         Level = "low"
)

// Direction of a drift relative to the home side.
type Direction string

const (
	BullishHome Direction = "bullish_home"
	BearishHome Direction = "bearish_home"
)

const (
	criticalVelocityPct    = 5.0
	significantVelocityPct = 2.0
	criticalMovePct        = 5.0
)

// Force classifies a drift velocity.
type Force struct {
	Level     Level     `json:"level"`
	Direction Direction `json:"direction"`
}

// SharpMoney describes a move from the opening price to the current one.
type SharpMoney struct {
	Level       Level      `json:"level"`
	Direction   model.Side `json:"direction,omitempty"`
	MovePercent float64    `json:"move_percent"`
}

// Signal is the combined market reading for one match.
type Signal struct {
	Velocity float64    `json:"velocity"`
	Force    Force      `json:"force"`
	Sharp    SharpMoney `json:"sharp"`
}

// Neutral is the reading used when no odds history is available.
func Neutral() Signal {
	return Signal{
		Force: Force{Level: LevelNeutral, Direction: BearishHome},
		Sharp: SharpMoney{Level: LevelNeutral},
	}
}

// ImpliedProb converts a decimal price to a probability; non-positive
// prices imply 0.
func ImpliedProb(price float64) float64 {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	return 1 / price
}

// DriftVelocity is the change in the home implied probability between the
// opening and the latest snapshot, divided by the number of snapshots.
// Fewer than two snapshots give 0.
func DriftVelocity(history []model.OddsSnapshot) float64 {
	if len(history) < 2 {
		return 0
	}
	opening := ImpliedProb(history[0].Home)
	current := ImpliedProb(history[len(history)-1].Home)
	if opening == 0 || current == 0 {
		return 0
	}
	return (current - opening) / float64(len(history))
}

// ClassifyForce grades a velocity.
func ClassifyForce(velocity float64) Force {
	f := Force{Level: LevelNeutral, Direction: BearishHome}
	if velocity > 0 {
		f.Direction = BullishHome
	}
	switch pct := math.Abs(velocity * 100); {
	case pct > criticalVelocityPct:
		f.Level = LevelCritical
	case pct > significantVelocityPct:
		f.Level = LevelSignificant
	}
	return f
}

// DetectSharpMoney compares the current home price with the opening one.
// A shortening price is money on home, a drifting price money on away.
// Missing prices give a neutral reading.
func DetectSharpMoney(current, opening float64) SharpMoney {
	cur, open := ImpliedProb(current), ImpliedProb(opening)
	if cur == 0 || open == 0 {
		return SharpMoney{Level: LevelNeutral}
	}
	move := (cur - open) * 100
	sm := SharpMoney{Level: LevelLow, Direction: model.SideHome, MovePercent: move}
	if move < 0 {
		sm.Direction = model.SideAway
	}
	if math.Abs(move) > criticalMovePct {
		sm.Level = LevelCritical
	}
	return sm
}

// Analyze reads the whole odds payload. The current home price falls back
// to the latest snapshot when odds.Home is unset.
func Analyze(odds model.Odds) Signal {
	if len(odds.History) == 0 {
		return Neutral()
	}
	velocity := DriftVelocity(odds.History)

	current := odds.Home
	if current <= 0 {
		current = odds.History[len(odds.History)-1].Home
	}
	return Signal{
		Velocity: velocity,
		Force:    ClassifyForce(velocity),
		Sharp:    DetectSharpMoney(current, odds.History[0].Home),
	}
}

// VortexMultiplier maps the velocity onto a factor around 1.0, bounded to
// [0.85, 1.15].
func VortexMultiplier(velocity float64) float64 {
	return 1 + math.Max(-0.15, math.Min(0.15, velocity))
}
