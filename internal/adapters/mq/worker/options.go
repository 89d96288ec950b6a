// Package worker runs the asynchronous side of the service: a single
// trainer draining the training queue, and a pool fanning out batch
// predictions.
package worker

import (
	"github.com/okian/pitchcast/pkg/logger"
)

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Trainer) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Trainer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithOnResult registers a callback run after every job.
func WithOnResult(fn ResultFunc) Option {
	return func(w *Trainer) {
		if fn != nil {
			w.onResult = fn
		}
	}
}
