package model

import "time"

// DefaultRating is assigned to a team on first lookup.
const DefaultRating = 1500.0

// TeamRating is a team's current strength.
type TeamRating struct {
	TeamID      string    `json:"team_id"`
	Rating      float64   `json:"rating"`
	LastUpdated time.Time `json:"last_updated"`
}

// RankedTeam is a leaderboard row.
type RankedTeam struct {
	Rank   int     `json:"rank"`
	TeamID string  `json:"team_id"`
	Rating float64 `json:"rating"`
}
