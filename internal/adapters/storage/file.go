package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/pitchcast/internal/domain/rating"
)

// File stores the record as JSON at a path. Saves write a temporary file
// in the same directory and rename it over the target.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a file backend.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(context.Context) (rating.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyRecord(), nil
	}
	if err != nil {
		return rating.Record{}, fmt.Errorf("read %s: %w", f.path, err)
	}

	rec := emptyRecord()
	if err := json.Unmarshal(data, &rec); err != nil {
		return rating.Record{}, fmt.Errorf("%w: %s: %w", ErrCorrupt, f.path, err)
	}
	if rec.Ratings == nil {
		rec.Ratings = map[string]float64{}
	}
	return rec, nil
}

func (f *File) Save(_ context.Context, rec rating.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".ratings-*.json")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename to %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Close() error { return nil }
