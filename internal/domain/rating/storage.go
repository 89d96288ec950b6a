package rating

import "context"

// Record is the persisted form of the store.
// LastTrained is epoch milliseconds, 0 when never trained.
type Record struct {
	LastTrained int64              `json:"lastTrained"`
	Ratings     map[string]float64 `json:"ratings"`
}

// Storage loads and saves the rating record. An absent record loads as an
// empty Record without error.
type Storage interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
}
