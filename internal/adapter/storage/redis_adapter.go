package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/inventory-service/internal/port"
)

const sequenceKeyPrefix = "seq:"

// RedisSequenceAdapter keeps one integer key per sequence. INCR creates a
// missing key at zero before incrementing, so the first value is 1.
type RedisSequenceAdapter struct {
	client redis.UniversalClient
}

func NewRedisSequenceAdapter(client redis.UniversalClient) *RedisSequenceAdapter {
	return &RedisSequenceAdapter{client: client}
}

func (r *RedisSequenceAdapter) NextValue(ctx context.Context, name string) (int64, error) {
	n, err := r.client.Incr(ctx, sequenceKeyPrefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w: %w", name, port.ErrStoreUnavailable, err)
	}
	return n, nil
}

// CurrentValue returns the last value handed out, 0 for an unused sequence.
func (r *RedisSequenceAdapter) CurrentValue(ctx context.Context, name string) (int64, error) {
	n, err := r.client.Get(ctx, sequenceKeyPrefix+name).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w: %w", name, port.ErrStoreUnavailable, err)
	}
	return n, nil
}

// SetSequence moves a counter to value; the next NextValue returns value+1.
func (r *RedisSequenceAdapter) SetSequence(ctx context.Context, name string, value int64) error {
	return r.client.Set(ctx, sequenceKeyPrefix+name, value, 0).Err()
}

func (r *RedisSequenceAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
