// Package signal defines the uniform value every context modifier
// (sentiment, tactical matchup, referee, venue, weather, narrative) is
// reduced to before fusion, and the provider contract that produces them.
package signal

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

// Signal is one context modifier.
//
// AdditiveDelta is added (scaled by 5) to Side; an empty Side means home,
// so a positive delta favors the home team. MultiplicativeFactor scales
// whichever side is favored at the time it is applied; 0 and 1 mean no
// factor. Confidence is in [0,1].
type Signal struct {
	Name                 string     `json:"name"`
	Side                 model.Side `json:"side,omitempty"`
	AdditiveDelta        float64    `json:"additive_delta,omitempty"`
	MultiplicativeFactor float64    `json:"multiplicative_factor,omitempty"`
	Confidence           float64    `json:"confidence"`
}

// Additive builds a sentiment-style signal.
func Additive(name string, side model.Side, delta, confidence float64) Signal {
	return Signal{Name: name, Side: side, AdditiveDelta: delta, Confidence: confidence}
}

// Multiplicative builds a tactical/narrative-style signal.
func Multiplicative(name string, factor, confidence float64) Signal {
	return Signal{Name: name, MultiplicativeFactor: factor, Confidence: confidence}
}

// TargetSide returns the side AdditiveDelta applies to.
func (s Signal) TargetSide() model.Side {
	if s.Side == "" {
		return model.SideHome
	}
	return s.Side
}

// HasFactor reports whether MultiplicativeFactor changes anything.
func (s Signal) HasFactor() bool {
	return s.MultiplicativeFactor > 0 && s.MultiplicativeFactor != 1
}

// Validate rejects signals the fusion loop cannot apply.
func (s Signal) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSignal)
	}
	if s.Side != "" && !s.Side.Valid() {
		return fmt.Errorf("%w: %s: unknown side %q", ErrInvalidSignal, s.Name, s.Side)
	}
	if !finite(s.AdditiveDelta) || !finite(s.MultiplicativeFactor) || !finite(s.Confidence) {
		return fmt.Errorf("%w: %s: non-finite value", ErrInvalidSignal, s.Name)
	}
	if s.MultiplicativeFactor < 0 {
		return fmt.Errorf("%w: %s: negative factor", ErrInvalidSignal, s.Name)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: %s: confidence out of [0,1]", ErrInvalidSignal, s.Name)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Filter keeps signals whose confidence reaches minConfidence, preserving order.
func Filter(signals []Signal, minConfidence float64) []Signal {
	out := make([]Signal, 0, len(signals))
	for _, s := range signals {
		if s.Confidence >= minConfidence {
			out = append(out, s)
		}
	}
	return out
}

// Match is what a provider knows about the fixture it is asked about.
type Match struct {
	Sport  model.Sport
	HomeID string
	AwayID string
}

// Provider produces signals for a match.
type Provider interface {
	Name() string
	Signals(ctx context.Context, m Match) ([]Signal, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc struct {
	ID string
	Fn func(ctx context.Context, m Match) ([]Signal, error)
}

// Name implements Provider.
func (p ProviderFunc) Name() string { return p.ID }

// Signals implements Provider.
func (p ProviderFunc) Signals(ctx context.Context, m Match) ([]Signal, error) {
	return p.Fn(ctx, m)
}

// Collect asks every provider concurrently and concatenates valid signals
// in provider order. A failing provider or an invalid signal is logged and
// skipped so one bad source cannot block a prediction.
func Collect(ctx context.Context, log logger.Logger, providers []Provider, m Match) []Signal {
	results := make([][]Signal, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = ask(ctx, log, p, m)
		}()
	}
	wg.Wait()

	var out []Signal
	for _, sigs := range results {
		out = append(out, sigs...)
	}
	return out
}

func ask(ctx context.Context, log logger.Logger, p Provider, m Match) []Signal {
	sigs, err := p.Signals(ctx, m)
	if err != nil {
		metrics.RecordErrorByComponent("signal", "provider")
		log.Warn(ctx, "signal provider failed", logger.String("provider", p.Name()), logger.Error(err))
		return nil
	}
	var valid []Signal
	for _, s := range sigs {
		if err := s.Validate(); err != nil {
			metrics.RecordErrorByComponent("signal", "invalid")
			log.Warn(ctx, "dropping invalid signal", logger.String("provider", p.Name()), logger.Error(err))
			continue
		}
		valid = append(valid, s)
	}
	return valid
}
