package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/inventory-service/internal/port"
)

var ErrInvalidSequenceName = errors.New("sequence name must not be empty")

// SequenceAllocator hands out the next value of a named counter. It keeps no
// local state; every call is one atomic round trip to the store, so any
// number of processes can share a counter.
type SequenceAllocator struct {
	repo port.SequenceRepository
}

func NewSequenceAllocator(repo port.SequenceRepository) *SequenceAllocator {
	return &SequenceAllocator{repo: repo}
}

func (a *SequenceAllocator) NextValue(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrInvalidSequenceName
	}

	n, err := a.repo.NextValue(ctx, name)
	if err != nil {
		if errors.Is(err, port.ErrStoreUnavailable) {
			return 0, fmt.Errorf("next value of %q: %w", name, err)
		}
		return 0, fmt.Errorf("next value of %q: %w: %w", name, port.ErrStoreUnavailable, err)
	}

	// A counter that goes backwards or returns zero cannot have been
	// incremented atomically.
	if n < 1 {
		return 0, fmt.Errorf("next value of %q: %w: counter returned %d", name, port.ErrStoreUnavailable, n)
	}

	return n, nil
}
