package model

import "time"

// OddsSnapshot is one observation of decimal prices for a match.
type OddsSnapshot struct {
	Home      float64   `json:"home"`
	Away      float64   `json:"away"`
	Draw      float64   `json:"draw,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Odds holds the current prices and the ordered history;
// History[0] is the opening line.
type Odds struct {
	Home    float64        `json:"home"`
	Away    float64        `json:"away"`
	Draw    float64        `json:"draw,omitempty"`
	History []OddsSnapshot `json:"history,omitempty"`
}

// Current returns the current prices as a snapshot.
func (o Odds) Current() OddsSnapshot {
	return OddsSnapshot{Home: o.Home, Away: o.Away, Draw: o.Draw}
}

// PriceFor returns the decimal price for side, 0 when unknown.
func (o Odds) PriceFor(side Side) float64 {
	switch side {
	case SideHome:
		return o.Home
	case SideDraw:
		return o.Draw
	case SideAway:
		return o.Away
	}
	return 0
}
