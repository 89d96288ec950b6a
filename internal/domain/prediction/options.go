package prediction

import (
	"github.com/okian/pitchcast/internal/domain/aggregator"
	"github.com/okian/pitchcast/internal/domain/scoreline"
	"github.com/okian/pitchcast/internal/domain/signal"
	"github.com/okian/pitchcast/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithScoreline sets the scoreline model.
func WithScoreline(m *scoreline.Model) Option {
	return func(e *Engine) {
		if m != nil {
			e.scores = m
		}
	}
}

// WithAggregator sets the fusion stage.
func WithAggregator(a *aggregator.Aggregator) Option {
	return func(e *Engine) {
		if a != nil {
			e.agg = a
		}
	}
}

// WithProviders adds signal providers consulted on every prediction.
func WithProviders(p ...signal.Provider) Option {
	return func(e *Engine) {
		e.providers = append(e.providers, p...)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
