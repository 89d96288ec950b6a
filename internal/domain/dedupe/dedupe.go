// Package dedupe tracks match records already accepted for training so a
// replayed history file or a retried request is not applied twice.
package dedupe

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/pitchcast/internal/domain/model"
)

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already seen and records it
	// if not, atomically.
	SeenAndRecord(ctx context.Context, key string) bool
	// Unrecord forgets key so a record whose training was rejected can be
	// submitted again.
	Unrecord(ctx context.Context, key string)
	Size() int64
}

// inMemoryDeduper keeps keys in insertion order; when bounded, the oldest
// key is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates an in-memory deduper. It is bounded to
// 50000 keys unless WithMaxSize says otherwise.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: 50000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		delete(d.seen, oldest.Value.(string))
		d.order.Remove(oldest)
	}
	d.seen[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[key]; ok {
		delete(d.seen, key)
		d.order.Remove(e)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

// Fresh returns the records whose key d has not seen, recording them.
// Duplicates inside records are dropped too.
func Fresh(ctx context.Context, d Deduper, records []model.MatchRecord) (fresh []model.MatchRecord, dropped int) {
	fresh = make([]model.MatchRecord, 0, len(records))
	for _, r := range records {
		if d.SeenAndRecord(ctx, r.Key()) {
			dropped++
			continue
		}
		fresh = append(fresh, r)
	}
	return fresh, dropped
}

// Forget unrecords every record's key.
func Forget(ctx context.Context, d Deduper, records []model.MatchRecord) {
	for _, r := range records {
		d.Unrecord(ctx, r.Key())
	}
}
