package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/inventory-service/internal/core/domain"
	"github.com/rl1809/inventory-service/internal/logger"
	"github.com/rl1809/inventory-service/internal/port"
)

const DefaultMaxAttempts = 5

var ErrIDAllocationExhausted = errors.New("failed to generate unique id after multiple attempts")

// RetryPolicy bounds the generated-id write loop. The zero Backoff retries
// immediately.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts}
}

// PersistFunc writes a record under the candidate id. It must return an error
// wrapping port.ErrDuplicateKey when the id is already taken; any other error
// ends the loop.
type PersistFunc func(ctx context.Context, id string) error

// Creator allocates a sequence value, formats it into an id and persists a
// record under it, retrying with a fresh value whenever the store reports the
// id as taken.
type Creator struct {
	allocator *SequenceAllocator
	policy    RetryPolicy
	metrics   port.CreatorMetrics
	logger    *zap.Logger
}

func NewCreator(allocator *SequenceAllocator, policy RetryPolicy, metrics port.CreatorMetrics, l *zap.Logger) *Creator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if metrics == nil {
		metrics = port.NopCreatorMetrics{}
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Creator{
		allocator: allocator,
		policy:    policy,
		metrics:   metrics,
		logger:    l,
	}
}

// CreateWithGeneratedID returns the id the record was persisted under.
//
// Every attempt consumes one sequence value, successful or not. Store calls
// run on a context detached from the caller's cancellation so a write in
// progress completes; cancellation only prevents further attempts.
func (c *Creator) CreateWithGeneratedID(ctx context.Context, sequence string, format domain.IDFormatter, persist PersistFunc) (string, error) {
	log := logger.FromContextOr(ctx, c.logger).With(zap.String("sequence", sequence))
	storeCtx := context.WithoutCancel(ctx)

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx); err != nil {
				return "", err
			}
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		c.metrics.Attempt(sequence)

		n, err := c.allocator.NextValue(storeCtx, sequence)
		if err != nil {
			return "", err
		}
		id := format(n)

		err = persist(storeCtx, id)
		switch {
		case err == nil:
			c.metrics.Created(sequence)
			log.Debug("record created", zap.String("id", id), zap.Int("attempt", attempt))
			return id, nil
		case errors.Is(err, port.ErrDuplicateKey):
			c.metrics.Conflict(sequence)
			log.Warn("duplicate id, retrying", zap.String("candidate_id", id), zap.Int("attempt", attempt))
		default:
			return "", fmt.Errorf("persist %s: %w", id, err)
		}
	}

	c.metrics.Exhausted(sequence)
	log.Error("id allocation exhausted", zap.Int("attempts", c.policy.MaxAttempts))
	return "", fmt.Errorf("%w: sequence %q, %d attempts", ErrIDAllocationExhausted, sequence, c.policy.MaxAttempts)
}

func (c *Creator) wait(ctx context.Context) error {
	if c.policy.Backoff <= 0 {
		return nil
	}
	timer := time.NewTimer(c.policy.Backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
