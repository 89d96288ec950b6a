package rating

import (
	"time"

	"github.com/okian/pitchcast/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithStorage sets the persistence backend. Without one the store is
// in-memory only.
func WithStorage(storage Storage) Option {
	return func(s *Store) {
		if storage != nil {
			s.storage = storage
		}
	}
}

// WithCooldown sets the minimum interval between effective training runs.
func WithCooldown(cooldown time.Duration) Option {
	return func(s *Store) {
		if cooldown >= 0 {
			s.cooldown = cooldown
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
