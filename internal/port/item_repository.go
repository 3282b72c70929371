package port

import (
	"context"
	"time"

	"github.com/rl1809/inventory-service/internal/core/domain"
)

type ItemRepository interface {
	// Insert persists a new item. It returns an error wrapping ErrDuplicateKey
	// when the item id is already taken, and nothing is written in that case.
	Insert(ctx context.Context, item domain.InventoryItem) error

	List(ctx context.Context) ([]domain.InventoryItem, error)

	// Get returns ErrNotFound when no item carries id.
	Get(ctx context.Context, id string) (*domain.InventoryItem, error)

	// Update replaces the business fields of an item, leaving its id and
	// creation time untouched.
	Update(ctx context.Context, id string, fields domain.ItemFields, updatedAt time.Time) (*domain.InventoryItem, error)

	// Delete removes the item and returns what was removed.
	Delete(ctx context.Context, id string) (*domain.InventoryItem, error)
}
