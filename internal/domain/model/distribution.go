package model

import (
	"math"
	"sort"
)

// Side is one of the three match outcomes.
type Side string

const (
	SideHome Side = "home"
	SideDraw Side = "draw"
	SideAway Side = "away"
)

// Valid reports whether s names an outcome.
func (s Side) Valid() bool {
	return s == SideHome || s == SideDraw || s == SideAway
}

// Distribution is a probability triple expressed in percent.
// Stage outputs keep every value in [0,100] and sum to 100.
type Distribution struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// Sum returns Home+Draw+Away.
func (d Distribution) Sum() float64 {
	return d.Home + d.Draw + d.Away
}

// Get returns the value for side.
func (d Distribution) Get(side Side) float64 {
	switch side {
	case SideHome:
		return d.Home
	case SideDraw:
		return d.Draw
	case SideAway:
		return d.Away
	}
	return 0
}

// With returns a copy of d with side set to v.
func (d Distribution) With(side Side, v float64) Distribution {
	switch side {
	case SideHome:
		d.Home = v
	case SideDraw:
		d.Draw = v
	case SideAway:
		d.Away = v
	}
	return d
}

// Favored returns the leading win side: home unless away is strictly larger.
func (d Distribution) Favored() Side {
	if d.Home >= d.Away {
		return SideHome
	}
	return SideAway
}

// Clamp limits every component to [0,100]. NaN becomes 0.
func (d Distribution) Clamp() Distribution {
	return Distribution{
		Home: clampPercent(d.Home),
		Draw: clampPercent(d.Draw),
		Away: clampPercent(d.Away),
	}
}

// Normalize clamps and rescales d so it sums to 100. An all-zero
// distribution becomes an even split.
func (d Distribution) Normalize() Distribution {
	d = d.Clamp()
	sum := d.Sum()
	if sum <= 0 {
		return Distribution{Home: 100.0 / 3, Draw: 100.0 / 3, Away: 100.0 / 3}
	}
	f := 100 / sum
	return Distribution{Home: d.Home * f, Draw: d.Draw * f, Away: d.Away * f}
}

// Max returns the largest component.
func (d Distribution) Max() float64 {
	return math.Max(d.Home, math.Max(d.Draw, d.Away))
}

// Rounded normalizes d and rounds it to whole percentages using the
// largest remainder method, so the result always sums to exactly 100.
// Remainder ties go to home, then draw, then away.
func (d Distribution) Rounded() (home, draw, away int) {
	n := d.Normalize()
	vals := [3]float64{n.Home, n.Draw, n.Away}

	var parts [3]int
	total := 0
	for i, v := range vals {
		parts[i] = int(math.Floor(v))
		total += parts[i]
	}

	order := []int{0, 1, 2}
	sort.SliceStable(order, func(a, b int) bool {
		ra := vals[order[a]] - float64(parts[order[a]])
		rb := vals[order[b]] - float64(parts[order[b]])
		return ra > rb
	})
	for i := 0; total < 100 && i < len(order); i++ {
		parts[order[i]]++
		total++
	}

	return parts[0], parts[1], parts[2]
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
