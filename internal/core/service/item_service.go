package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/inventory-service/internal/core/domain"
	"github.com/rl1809/inventory-service/internal/port"
)

type ItemService struct {
	items    port.ItemRepository
	creator  *Creator
	sequence string
	now      func() time.Time
}

func NewItemService(items port.ItemRepository, creator *Creator, sequence string) *ItemService {
	if sequence == "" {
		sequence = domain.ItemSequence
	}
	return &ItemService{
		items:    items,
		creator:  creator,
		sequence: sequence,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateItem stores a new item under the next free id. Two calls with the same
// fields create two items.
func (s *ItemService) CreateItem(ctx context.Context, fields domain.ItemFields) (*domain.InventoryItem, error) {
	var created domain.InventoryItem

	_, err := s.creator.CreateWithGeneratedID(ctx, s.sequence, domain.FormatItemID, func(ctx context.Context, id string) error {
		item := domain.NewInventoryItem(id, fields, s.now())
		if err := s.items.Insert(ctx, item); err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *ItemService) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (s *ItemService) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return item, nil
}

func (s *ItemService) UpdateItem(ctx context.Context, id string, fields domain.ItemFields) (*domain.InventoryItem, error) {
	item, err := s.items.Update(ctx, id, fields, s.now())
	if err != nil {
		return nil, fmt.Errorf("update item %s: %w", id, err)
	}
	return item, nil
}

func (s *ItemService) DeleteItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	item, err := s.items.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete item %s: %w", id, err)
	}
	return item, nil
}
