package port

import "errors"

// Adapters wrap their store-specific failures in these so the core can
// classify an outcome with errors.Is without knowing which store it talks to.
var (
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotFound         = errors.New("not found")
)
