// Package storage provides the rating persistence backends: memory, a JSON
// file, SQL (sqlite or postgres) and redis. All of them load and save the
// single rating record.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pitchcast/internal/config"
	"github.com/okian/pitchcast/internal/domain/rating"
	"github.com/okian/pitchcast/pkg/metrics"
)

// Backend is a rating.Storage that holds resources.
type Backend interface {
	rating.Storage
	Close() error
}

// Open builds the backend selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.StorageDriver {
	case config.DriverMemory:
		b = NewMemory()
	case config.DriverFile:
		b = NewFile(cfg.StoragePath)
	case config.DriverSQLite:
		b, err = NewSQLite(ctx, cfg.StoragePath)
	case config.DriverPostgres:
		b, err = NewPostgres(ctx, cfg.StorageDSN)
	case config.DriverRedis:
		b = NewRedis(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(cfg.StorageDriver, b), nil
}

// Instrument records latency and error metrics for every call on b.
func Instrument(driver string, b Backend) Backend {
	return &instrumented{driver: driver, next: b}
}

type instrumented struct {
	driver string
	next   Backend
}

func (i *instrumented) Load(ctx context.Context) (rating.Record, error) {
	start := time.Now()
	rec, err := i.next.Load(ctx)
	i.observe("load", start, err)
	return rec, err
}

func (i *instrumented) Save(ctx context.Context, rec rating.Record) error {
	start := time.Now()
	err := i.next.Save(ctx, rec)
	i.observe("save", start, err)
	return err
}

func (i *instrumented) Close() error { return i.next.Close() }

func (i *instrumented) observe(op string, start time.Time, err error) {
	metrics.RecordStorageLatency(i.driver, op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStorageError(i.driver, op)
	}
}

// emptyRecord is what an absent record loads as.
func emptyRecord() rating.Record {
	return rating.Record{Ratings: map[string]float64{}}
}
