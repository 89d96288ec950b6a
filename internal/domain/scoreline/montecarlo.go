package scoreline

import (
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/okian/pitchcast/internal/domain/model"
)

const (
	// DefaultIterations is the simulation length used by Model.
	DefaultIterations = 10_000
	// chunkSize fixes the work unit of the parallel simulation so results
	// do not depend on the worker count.
	chunkSize = 2_500
	// maxSampledGoals bounds inverse-transform sampling.
	maxSampledGoals = 30
)

type tally struct {
	home, draw, away int
}

func (t *tally) add(o tally) {
	t.home += o.home
	t.draw += o.draw
	t.away += o.away
}

func (t tally) percent() model.Distribution {
	n := float64(t.home + t.draw + t.away)
	if n == 0 {
		return model.Distribution{}.Normalize()
	}
	return model.Distribution{
		Home: float64(t.home) / n * 100,
		Draw: float64(t.draw) / n * 100,
		Away: float64(t.away) / n * 100,
	}
}

// samplePoisson draws from Poisson(lambda) by walking the CDF until it
// exceeds a uniform variate.
func samplePoisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	u := rng.Float64()
	p := math.Exp(-lambda)
	cdf := p
	k := 0
	for u > cdf && k < maxSampledGoals {
		k++
		p *= lambda / float64(k)
		cdf += p
	}
	return k
}

func simulate(rng *rand.Rand, homeXG, awayXG float64, iterations int) tally {
	var t tally
	for i := 0; i < iterations; i++ {
		h := samplePoisson(rng, homeXG)
		a := samplePoisson(rng, awayXG)
		switch {
		case h > a:
			t.home++
		case h == a:
			t.draw++
		default:
			t.away++
		}
	}
	return t
}

// MonteCarloSimulate samples iterations matches from one PRNG seeded with
// seed. The same inputs always give the same distribution.
func MonteCarloSimulate(homeXG, awayXG float64, iterations int, seed int64) model.Distribution {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not security
	return simulate(rng, homeXG, awayXG, iterations).percent()
}

// MonteCarloSimulateParallel splits the run into fixed chunks, each with
// its own PRNG derived from seed and the chunk index, and runs them on up
// to workers goroutines. The result depends on the seed only, not on the
// worker count or scheduling. It differs from MonteCarloSimulate for the
// same seed.
func MonteCarloSimulateParallel(homeXG, awayXG float64, iterations int, seed int64, workers int) model.Distribution {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	chunks := (iterations + chunkSize - 1) / chunkSize
	results := make([]tally, chunks)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(workers, chunks); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				n := chunkSize
				if rest := iterations - c*chunkSize; rest < n {
					n = rest
				}
				rng := rand.New(rand.NewSource(chunkSeed(seed, c))) //nolint:gosec // simulation
				results[c] = simulate(rng, homeXG, awayXG, n)
			}
		}()
	}
	for c := 0; c < chunks; c++ {
		jobs <- c
	}
	close(jobs)
	wg.Wait()

	var total tally
	for _, r := range results {
		total.add(r)
	}
	return total.percent()
}

// chunkSeed mixes the chunk index into the seed (splitmix64 finalizer).
func chunkSeed(seed int64, chunk int) int64 {
	z := uint64(seed) + uint64(chunk+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
