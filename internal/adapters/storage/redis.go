package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pitchcast/internal/domain/rating"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "pitchcast:ratings"

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Timeout  time.Duration
}

// Redis stores the JSON record under a single key.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis creates a redis backend. The connection is lazy; a dead server
// surfaces as a Load or Save error.
func NewRedis(opts RedisOptions) *Redis {
	if opts.Key == "" {
		opts.Key = defaultRedisKey
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Password:     opts.Password,
			DB:           opts.DB,
			DialTimeout:  opts.Timeout,
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
			MaxRetries:   1,
		}),
		key: opts.Key,
	}
}

func (r *Redis) Load(ctx context.Context) (rating.Record, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return emptyRecord(), nil
	}
	if err != nil {
		return rating.Record{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	rec := emptyRecord()
	if err := json.Unmarshal(data, &rec); err != nil {
		return rating.Record{}, fmt.Errorf("%w: redis %s: %w", ErrCorrupt, r.key, err)
	}
	if rec.Ratings == nil {
		rec.Ratings = map[string]float64{}
	}
	return rec, nil
}

func (r *Redis) Save(ctx context.Context, rec rating.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
