package rating

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

const defaultCooldown = 6 * time.Hour

// Training outcomes reported in TrainReport.Outcome.
const (
	OutcomeApplied  = "applied"
	OutcomeEmpty    = "empty"
	OutcomeCooldown = "cooldown"
	OutcomeNoValid  = "no_valid_records"
)

// TrainReport summarises one TrainBatch call.
type TrainReport struct {
	Outcome      string    `json:"outcome"`
	Received     int       `json:"received"`
	Applied      int       `json:"applied"`
	SkippedScore int       `json:"skipped_score"`
	SkippedDate  int       `json:"skipped_date"`
	SkippedTeam  int       `json:"skipped_team"`
	TrainedAt    time.Time `json:"trained_at,omitzero"`
}

// Store holds team ratings. It is safe for concurrent use: reads are
// lock-free, training is serialized.
type Store struct {
	storage  Storage
	logger   logger.Logger
	cooldown time.Duration
	now      func() time.Time

	snap atomic.Pointer[snapshot]

	// trainMu serializes TrainBatch and Reset.
	trainMu sync.Mutex
	// swapMu guards read-modify-publish of the snapshot pointer.
	swapMu sync.Mutex

	degraded atomic.Bool
}

// NewStore builds an empty store. Call Load to restore persisted ratings.
func NewStore(opts ...Option) *Store {
	s := &Store{
		cooldown: defaultCooldown,
		logger:   logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snap.Store(newSnapshot(map[string]entry{}, time.Time{}))
	return s
}

// Load replaces the in-memory state with the persisted record. On a
// storage failure the store keeps running in memory only and the wrapped
// error is returned for the caller to report.
func (s *Store) Load(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	rec, err := s.storage.Load(ctx)
	if err != nil {
		s.markDegraded(ctx, "load", err)
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	var lastTrained time.Time
	if rec.LastTrained > 0 {
		lastTrained = time.UnixMilli(rec.LastTrained)
	}
	ratings := make(map[string]entry, len(rec.Ratings))
	for id, r := range rec.Ratings {
		ratings[id] = entry{rating: r, lastUpdated: lastTrained}
	}

	s.swapMu.Lock()
	s.publish(newSnapshot(ratings, lastTrained))
	s.swapMu.Unlock()

	s.logger.Info(ctx, "ratings loaded",
		logger.Int("teams", len(ratings)),
		logger.Int64("last_trained_ms", rec.LastTrained))
	return nil
}

// GetRating returns the team's rating, registering unseen teams at 1500.
func (s *Store) GetRating(teamID string) float64 {
	if e, ok := s.snap.Load().ratings[teamID]; ok {
		return e.rating
	}

	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	cur := s.snap.Load()
	if e, ok := cur.ratings[teamID]; ok {
		return e.rating
	}
	next := cur.clone()
	next[teamID] = entry{rating: model.DefaultRating, lastUpdated: s.now()}
	s.publish(newSnapshot(next, cur.lastTrained))
	return model.DefaultRating
}

// Rating returns the team's rating without registering it.
func (s *Store) Rating(teamID string) (model.TeamRating, bool) {
	e, ok := s.snap.Load().ratings[teamID]
	if !ok {
		return model.TeamRating{}, false
	}
	return model.TeamRating{TeamID: teamID, Rating: e.rating, LastUpdated: e.lastUpdated}, true
}

// RatingOrDefault returns the team's rating, or 1500 for an unseen team,
// without registering it.
func (s *Store) RatingOrDefault(teamID string) float64 {
	return s.snap.Load().ratingOrDefault(teamID)
}

// Rank returns the team's leaderboard row or ErrNotFound.
func (s *Store) Rank(teamID string) (model.RankedTeam, error) {
	snap := s.snap.Load()
	ranking := snap.rank()
	i, ok := snap.rankByID[teamID]
	if !ok {
		return model.RankedTeam{}, ErrNotFound
	}
	return ranking[i], nil
}

// TopN returns up to n teams by rating.
func (s *Store) TopN(n int) ([]model.RankedTeam, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	ranking := s.snap.Load().rank()
	if n > len(ranking) {
		n = len(ranking)
	}
	out := make([]model.RankedTeam, n)
	copy(out, ranking[:n])
	return out, nil
}

// Count returns the number of rated teams.
func (s *Store) Count() int {
	return len(s.snap.Load().ratings)
}

// LastTrained returns the time of the last effective batch, zero if never.
func (s *Store) LastTrained() time.Time {
	return s.snap.Load().lastTrained
}

// Degraded reports whether persistence has been abandoned.
func (s *Store) Degraded() bool {
	return s.degraded.Load()
}

// WinProbability returns whole-percent outcome probabilities for a match.
// Unseen teams count as 1500 and are not registered.
func (s *Store) WinProbability(homeID, awayID string, sport model.Sport) model.Distribution {
	snap := s.snap.Load()
	home := snap.ratingOrDefault(homeID) + HomeBonus(sport)
	away := snap.ratingOrDefault(awayID)
	return distribution(home, away, sport)
}

type parsedMatch struct {
	home, away           string
	homeGoals, awayGoals int
	date                 time.Time
}

// TrainBatch applies a batch of results in chronological order.
//
// It is a no-op for an empty batch, while the cooldown since the last
// effective batch has not elapsed on a non-empty store, or when no record
// parses. Malformed records are skipped. A storage failure after training
// is logged and leaves the store in memory only; it is not returned.
func (s *Store) TrainBatch(ctx context.Context, records []model.MatchRecord) (TrainReport, error) {
	report := TrainReport{Received: len(records)}
	if len(records) == 0 {
		report.Outcome = OutcomeEmpty
		metrics.RecordTrainingRun(report.Outcome)
		return report, nil
	}

	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	start := s.now()
	cur := s.snap.Load()
	if len(cur.ratings) > 0 && !cur.lastTrained.IsZero() && start.Sub(cur.lastTrained) < s.cooldown {
		report.Outcome = OutcomeCooldown
		metrics.RecordTrainingRun(report.Outcome)
		s.logger.Debug(ctx, "training skipped, cooldown active",
			logger.Duration("since_last", start.Sub(cur.lastTrained)))
		return report, nil
	}

	matches := s.parse(ctx, records, &report)
	if len(matches) == 0 {
		report.Outcome = OutcomeNoValid
		metrics.RecordTrainingRun(report.Outcome)
		return report, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].date.Before(matches[j].date)
	})

	working := cur.clone()
	for _, m := range matches {
		rh := ratingOf(working, m.home)
		ra := ratingOf(working, m.away)
		k := KFactor(m.homeGoals - m.awayGoals)
		delta := k * (outcome(m.homeGoals, m.awayGoals) - ExpectedScore(rh, ra))
		working[m.home] = entry{rating: rh + delta, lastUpdated: start}
		working[m.away] = entry{rating: ra - delta, lastUpdated: start}
	}
	report.Applied = len(matches)

	if err := ctx.Err(); err != nil {
		metrics.RecordTrainingRun("canceled")
		return report, fmt.Errorf("train batch: %w", err)
	}

	s.swapMu.Lock()
	// keep teams registered by readers while the batch was computed
	for id, e := range s.snap.Load().ratings {
		if _, ok := working[id]; !ok {
			working[id] = e
		}
	}
	next := newSnapshot(working, start)
	s.publish(next)
	s.swapMu.Unlock()

	s.persist(ctx, next)

	report.Outcome = OutcomeApplied
	report.TrainedAt = start
	metrics.RecordTrainingRun(report.Outcome)
	metrics.RecordTrainingRecords("applied", report.Applied)
	metrics.RecordTrainingDuration(float64(s.now().Sub(start).Milliseconds()))
	metrics.UpdateTrainingLastUnix(start.Unix())

	s.logger.Info(ctx, "training batch applied",
		logger.Int("received", report.Received),
		logger.Int("applied", report.Applied),
		logger.Int("teams", len(working)))
	return report, nil
}

// Reset clears every rating and the training timestamp, then persists
// the empty record.
func (s *Store) Reset(ctx context.Context) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	empty := newSnapshot(map[string]entry{}, time.Time{})
	s.swapMu.Lock()
	s.publish(empty)
	s.swapMu.Unlock()

	s.persist(ctx, empty)
	s.logger.Info(ctx, "ratings reset")
}

func (s *Store) parse(ctx context.Context, records []model.MatchRecord, report *TrainReport) []parsedMatch {
	out := make([]parsedMatch, 0, len(records))
	for _, r := range records {
		if r.Home.ID == "" || r.Away.ID == "" || r.Home.ID == r.Away.ID {
			report.SkippedTeam++
			s.logger.Warn(ctx, "skipping match record with invalid teams",
				logger.String("home", r.Home.ID), logger.String("away", r.Away.ID))
			continue
		}
		hg, ag, err := r.ParseScore()
		if err != nil {
			report.SkippedScore++
			s.logger.Warn(ctx, "skipping match record", logger.String("key", r.Key()), logger.Error(err))
			continue
		}
		date, err := r.ParseDate()
		if err != nil {
			report.SkippedDate++
			s.logger.Warn(ctx, "skipping match record", logger.String("key", r.Key()), logger.Error(err))
			continue
		}
		out = append(out, parsedMatch{home: r.Home.ID, away: r.Away.ID, homeGoals: hg, awayGoals: ag, date: date})
	}
	metrics.RecordTrainingRecords("bad_team", report.SkippedTeam)
	metrics.RecordTrainingRecords("bad_score", report.SkippedScore)
	metrics.RecordTrainingRecords("bad_date", report.SkippedDate)
	return out
}

// publish stores next as the read snapshot. Callers hold swapMu.
func (s *Store) publish(next *snapshot) {
	s.snap.Store(next)
	metrics.RecordRatingSnapshotPublish()
	metrics.UpdateRatingTeams(len(next.ratings))
}

func (s *Store) persist(ctx context.Context, snap *snapshot) {
	if s.storage == nil || s.degraded.Load() {
		return
	}
	if err := s.storage.Save(ctx, snap.record()); err != nil {
		s.markDegraded(ctx, "save", err)
	}
}

func (s *Store) markDegraded(ctx context.Context, op string, err error) {
	s.degraded.Store(true)
	metrics.UpdateStorageDegraded(true)
	metrics.RecordErrorByComponent("rating", "storage_"+op)
	s.logger.Error(ctx, "rating storage failed, continuing in memory only",
		logger.String("op", op), logger.Error(err))
}

func ratingOf(m map[string]entry, id string) float64 {
	if e, ok := m[id]; ok {
		return e.rating
	}
	return model.DefaultRating
}
