package port

import "context"

type SequenceRepository interface {
	// NextValue atomically increments the named counter and returns the new
	// value, creating the counter at zero first if it does not exist.
	NextValue(ctx context.Context, name string) (int64, error)
}
