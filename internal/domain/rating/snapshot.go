package rating

import (
	"sort"
	"sync"
	"time"

	"github.com/okian/pitchcast/internal/domain/model"
)

type entry struct {
	rating      float64
	lastUpdated time.Time
}

// snapshot is an immutable view of the store. The ranking is built on
// first use and cached for the snapshot's lifetime.
type snapshot struct {
	ratings     map[string]entry
	lastTrained time.Time

	rankOnce sync.Once
	ranking  []model.RankedTeam
	rankByID map[string]int
}

func newSnapshot(ratings map[string]entry, lastTrained time.Time) *snapshot {
	return &snapshot{ratings: ratings, lastTrained: lastTrained}
}

func (s *snapshot) ratingOrDefault(teamID string) float64 {
	if e, ok := s.ratings[teamID]; ok {
		return e.rating
	}
	return model.DefaultRating
}

func (s *snapshot) clone() map[string]entry {
	out := make(map[string]entry, len(s.ratings)+1)
	for id, e := range s.ratings {
		out[id] = e
	}
	return out
}

func (s *snapshot) record() Record {
	rec := Record{Ratings: make(map[string]float64, len(s.ratings))}
	if !s.lastTrained.IsZero() {
		rec.LastTrained = s.lastTrained.UnixMilli()
	}
	for id, e := range s.ratings {
		rec.Ratings[id] = e.rating
	}
	return rec
}

// rank returns every team ordered by rating desc then id asc. Equal
// ratings share a rank and the next distinct rating takes the next rank.
func (s *snapshot) rank() []model.RankedTeam {
	s.rankOnce.Do(func() {
		out := make([]model.RankedTeam, 0, len(s.ratings))
		for id, e := range s.ratings {
			out = append(out, model.RankedTeam{TeamID: id, Rating: e.rating})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Rating != out[j].Rating {
				return out[i].Rating > out[j].Rating
			}
			return out[i].TeamID < out[j].TeamID
		})

		byID := make(map[string]int, len(out))
		current := 0
		for i := range out {
			if i == 0 || out[i].Rating != out[i-1].Rating {
				current++
			}
			out[i].Rank = current
			byID[out[i].TeamID] = i
		}
		s.ranking = out
		s.rankByID = byID
	})
	return s.ranking
}
