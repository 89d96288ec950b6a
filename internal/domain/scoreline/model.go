package scoreline

import "github.com/okian/pitchcast/internal/domain/model"

// Forecast bundles every scoreline output for one match.
type Forecast struct {
	HomeXG     float64                  `json:"home_xg"`
	AwayXG     float64                  `json:"away_xg"`
	Exact      model.Distribution       `json:"exact"`
	Simulated  model.Distribution       `json:"simulated"`
	Top5       []model.ScoreProbability `json:"top5"`
	Over15     float64                  `json:"over_1_5"`
	Over25     float64                  `json:"over_2_5"`
	Iterations int                      `json:"iterations"`
}

// Model holds the league parameters and simulation settings.
type Model struct {
	leagueAvg  float64
	iterations int
	seed       int64
	workers    int
}

// Option configures a Model.
type Option func(*Model)

// WithLeagueAverage sets the league scoring average.
func WithLeagueAverage(avg float64) Option {
	return func(m *Model) {
		if avg > 0 {
			m.leagueAvg = avg
		}
	}
}

// WithIterations sets the Monte Carlo length.
func WithIterations(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.iterations = n
		}
	}
}

// WithSeed sets the Monte Carlo seed.
func WithSeed(seed int64) Option {
	return func(m *Model) {
		m.seed = seed
	}
}

// WithParallelism runs the simulation on n goroutines when n > 1.
func WithParallelism(n int) Option {
	return func(m *Model) {
		m.workers = n
	}
}

// New builds a Model with defaults: league average 1.35, 10000 iterations,
// seed 42, single-threaded simulation.
func New(opts ...Option) *Model {
	m := &Model{
		leagueAvg:  DefaultLeagueAverage,
		iterations: DefaultIterations,
		seed:       42,
		workers:    1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Forecast computes expected goals and every derived output.
func (m *Model) Forecast(home, away *model.TeamStats) Forecast {
	hx, ax := GoalExpectancy(home, away, m.leagueAvg)

	var sim model.Distribution
	if m.workers > 1 {
		sim = MonteCarloSimulateParallel(hx, ax, m.iterations, m.seed, m.workers)
	} else {
		sim = MonteCarloSimulate(hx, ax, m.iterations, m.seed)
	}

	return Forecast{
		HomeXG:     hx,
		AwayXG:     ax,
		Exact:      MatchProbabilities(hx, ax),
		Simulated:  sim,
		Top5:       ScoreMatrix(hx, ax),
		Over15:     OverProbability(hx, ax, 1.5),
		Over25:     OverProbability(hx, ax, 2.5),
		Iterations: m.iterations,
	}
}
