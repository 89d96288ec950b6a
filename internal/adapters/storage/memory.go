package storage

import (
	"context"
	"maps"
	"sync"

	"github.com/okian/pitchcast/internal/domain/rating"
)

// Memory keeps the record in process memory.
type Memory struct {
	mu  sync.RWMutex
	rec *rating.Record
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (rating.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rec == nil {
		return emptyRecord(), nil
	}
	return rating.Record{LastTrained: m.rec.LastTrained, Ratings: maps.Clone(m.rec.Ratings)}, nil
}

func (m *Memory) Save(_ context.Context, rec rating.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rating.Record{LastTrained: rec.LastTrained, Ratings: maps.Clone(rec.Ratings)}
	return nil
}

func (m *Memory) Close() error { return nil }
