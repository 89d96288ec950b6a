// Package stake sizes bets with a fractional Kelly criterion.
package stake

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	DefaultFraction = 0.25
	DefaultCap      = 0.05
)

// Stake is a sizing decision.
type Stake struct {
	Kelly    decimal.Decimal `json:"kelly"`
	Fraction decimal.Decimal `json:"fraction"`
	Amount   decimal.Decimal `json:"amount"`
	Edge     decimal.Decimal `json:"edge"`
	Capped   bool            `json:"capped"`
}

// Sizer applies a safety fraction to the full Kelly stake and caps the
// result at a share of the bankroll.
type Sizer struct {
	fraction decimal.Decimal
	cap      decimal.Decimal
}

// Option configures a Sizer.
type Option func(*Sizer)

// WithFraction sets the safety fraction, in (0,1].
func WithFraction(f float64) Option {
	return func(s *Sizer) {
		if f > 0 && f <= 1 {
			s.fraction = decimal.NewFromFloat(f)
		}
	}
}

// WithCap sets the maximum share of bankroll, in (0,1].
func WithCap(c float64) Option {
	return func(s *Sizer) {
		if c > 0 && c <= 1 {
			s.cap = decimal.NewFromFloat(c)
		}
	}
}

// NewSizer builds a Sizer.
func NewSizer(opts ...Option) *Sizer {
	s := &Sizer{
		fraction: decimal.NewFromFloat(DefaultFraction),
		cap:      decimal.NewFromFloat(DefaultCap),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size returns the stake for a bet at decimal odds with win probability p
// (in [0,1]). A bet without an edge gets a zero stake.
func (s *Sizer) Size(odds, p float64, bankroll decimal.Decimal) (Stake, error) {
	if math.IsNaN(odds) || math.IsInf(odds, 0) || odds <= 1 {
		return Stake{}, fmt.Errorf("%w: %v", ErrInvalidOdds, odds)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return Stake{}, fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	if bankroll.IsNegative() {
		return Stake{}, ErrInvalidBankroll
	}

	one := decimal.NewFromInt(1)
	b := decimal.NewFromFloat(odds).Sub(one)
	prob := decimal.NewFromFloat(p)
	q := one.Sub(prob)

	edge := b.Mul(prob).Sub(q)
	kelly := edge.Div(b)
	out := Stake{Kelly: kelly, Edge: edge, Fraction: decimal.Zero, Amount: decimal.Zero}
	if !kelly.IsPositive() {
		return out, nil
	}

	f := kelly.Mul(s.fraction)
	if f.GreaterThan(s.cap) {
		f = s.cap
		out.Capped = true
	}
	out.Fraction = f
	out.Amount = bankroll.Mul(f).Round(2)
	return out, nil
}
