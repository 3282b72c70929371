package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/inventory-service/internal/core/domain"
	"github.com/rl1809/inventory-service/internal/port"
)

// Mock SequenceRepository
type mockSequenceRepo struct {
	mu       sync.Mutex
	counters map[string]int64
	err      error
	calls    int
}

func newMockSequenceRepo() *mockSequenceRepo {
	return &mockSequenceRepo{counters: make(map[string]int64)}
}

func (m *mockSequenceRepo) NextValue(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	m.counters[name]++
	return m.counters[name], nil
}

func (m *mockSequenceRepo) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Mock ItemRepository with a unique index on id. insertErrs is consumed one
// entry per Insert call before the index is consulted.
type mockItemRepo struct {
	mu         sync.Mutex
	items      map[string]domain.InventoryItem
	insertErrs []error
	inserts    int
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[string]domain.InventoryItem)}
}

func (m *mockItemRepo) Insert(ctx context.Context, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inserts++
	if len(m.insertErrs) > 0 {
		err := m.insertErrs[0]
		m.insertErrs = m.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := m.items[item.ID]; ok {
		return port.ErrDuplicateKey
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockItemRepo) List(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.InventoryItem, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockItemRepo) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &item, nil
}

func (m *mockItemRepo) Update(ctx context.Context, id string, fields domain.ItemFields, updatedAt time.Time) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	item.ItemFields = fields
	item.UpdatedAt = updatedAt
	m.items[id] = item
	return &item, nil
}

func (m *mockItemRepo) Delete(ctx context.Context, id string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	delete(m.items, id)
	return &item, nil
}

func (m *mockItemRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type mockMetrics struct {
	mu                                   sync.Mutex
	attempts, conflicts, exhausted, done int
}

func (m *mockMetrics) Attempt(string)   { m.mu.Lock(); m.attempts++; m.mu.Unlock() }
func (m *mockMetrics) Conflict(string)  { m.mu.Lock(); m.conflicts++; m.mu.Unlock() }
func (m *mockMetrics) Exhausted(string) { m.mu.Lock(); m.exhausted++; m.mu.Unlock() }
func (m *mockMetrics) Created(string)   { m.mu.Lock(); m.done++; m.mu.Unlock() }

func sampleFields(name string) domain.ItemFields {
	return domain.ItemFields{
		Name:         name,
		DisplayName:  "Display " + name,
		Tag:          "general",
		VolumeWeight: "1kg",
		Supplier:     "ACME",
		Quantity:     10,
		Status:       domain.ItemStatusActive,
	}
}

func newTestItemService(seq *mockSequenceRepo, items *mockItemRepo) *ItemService {
	creator := NewCreator(NewSequenceAllocator(seq), DefaultRetryPolicy(), nil, nil)
	return NewItemService(items, creator, domain.ItemSequence)
}
