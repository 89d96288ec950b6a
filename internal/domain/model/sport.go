// Package model contains domain value types passed between layers.
package model

import "strings"

// Sport identifies the competition a match belongs to, e.g. "soccer" or "nba".
type Sport string

// Known sports. Any other value is accepted and treated as "other".
const (
	SportSoccer     Sport = "soccer"
	SportFootball   Sport = "football"
	SportFutsal     Sport = "futsal"
	SportBasketball Sport = "basketball"
	SportNBA        Sport = "nba"
	SportWNBA       Sport = "wnba"
	SportEuroleague Sport = "euroleague"
	SportNCAAB      Sport = "ncaab"
	SportHockey     Sport = "hockey"
	SportIceHockey  Sport = "ice_hockey"
	SportNHL        Sport = "nhl"
	SportTennis     Sport = "tennis"
)

// Normalize lower-cases and trims the sport name.
func (s Sport) Normalize() Sport {
	return Sport(strings.ToLower(strings.TrimSpace(string(s))))
}

// IsBasketballFamily reports whether s is a basketball competition.
func (s Sport) IsBasketballFamily() bool {
	switch s.Normalize() {
	case SportBasketball, SportNBA, SportWNBA, SportEuroleague, SportNCAAB:
		return true
	}
	return false
}

// IsSoccerFamily reports whether s is an association football competition.
func (s Sport) IsSoccerFamily() bool {
	switch s.Normalize() {
	case SportSoccer, SportFootball, SportFutsal:
		return true
	}
	return false
}

// IsHockeyFamily reports whether s is an ice hockey competition.
func (s Sport) IsHockeyFamily() bool {
	switch s.Normalize() {
	case SportHockey, SportIceHockey, SportNHL:
		return true
	}
	return false
}

// AllowsDraw reports whether a draw is a valid final outcome.
func (s Sport) AllowsDraw() bool {
	return s.IsSoccerFamily()
}

// IsLowScoring reports whether goal counts are small enough for the
// Poisson scoreline model to apply.
func (s Sport) IsLowScoring() bool {
	return s.IsSoccerFamily() || s.IsHockeyFamily()
}
