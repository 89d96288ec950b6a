package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TeamRef identifies a team in external payloads.
type TeamRef struct {
	ID string `json:"id"`
}

// MatchRecord is a finished match used as training input.
// Score is "<home>-<away>", Date is ISO8601.
type MatchRecord struct {
	Home  TeamRef `json:"home"`
	Away  TeamRef `json:"away"`
	Score string  `json:"score"`
	Date  string  `json:"date"`
}

// Key identifies the record for idempotent ingestion.
func (m MatchRecord) Key() string {
	return m.Home.ID + "|" + m.Away.ID + "|" + m.Date
}

// ParseScore splits Score into home and away goal counts.
func (m MatchRecord) ParseScore() (home, away int, err error) {
	h, a, ok := strings.Cut(strings.TrimSpace(m.Score), "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedScore, m.Score)
	}
	home, errH := strconv.Atoi(strings.TrimSpace(h))
	away, errA := strconv.Atoi(strings.TrimSpace(a))
	if errH != nil || errA != nil || home < 0 || away < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedScore, m.Score)
	}
	return home, away, nil
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{ //nolint:gochecknoglobals // read-only layout table
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseDate parses Date as an ISO8601 timestamp or calendar date.
func (m MatchRecord) ParseDate() (time.Time, error) {
	s := strings.TrimSpace(m.Date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, m.Date)
}

// TeamStats carries per-match scoring averages. A non-positive value
// means the statistic is unknown.
type TeamStats struct {
	ScoredAvg   float64 `json:"scored_avg"`
	ConcededAvg float64 `json:"conceded_avg"`
}

// TeamInput describes one side of a match to predict.
type TeamInput struct {
	ID    string     `json:"id"`
	Stats *TeamStats `json:"stats,omitempty"`
	// Form is the recent results string, most recent last, e.g. "WWDLW".
	Form string `json:"form,omitempty"`
}
