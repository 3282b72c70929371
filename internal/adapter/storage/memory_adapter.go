package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rl1809/inventory-service/internal/core/domain"
	"github.com/rl1809/inventory-service/internal/port"
)

// MemoryAdapter is a process-local store implementing the sequence, item and
// report repositories. Counters are only atomic within one process.
type MemoryAdapter struct {
	mu        sync.Mutex
	counters  map[string]int64
	items     map[string]domain.InventoryItem
	order     []string
	sales     []domain.Sale
	expenses  []domain.Expense
	failCount int
	failErr   error
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		counters: make(map[string]int64),
		items:    make(map[string]domain.InventoryItem),
	}
}

func (m *MemoryAdapter) NextValue(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[name]++
	return m.counters[name], nil
}

func (m *MemoryAdapter) SetSequence(name string, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] = value
}

// FailNextInserts makes the next n Insert calls return err without writing.
func (m *MemoryAdapter) FailNextInserts(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCount = n
	m.failErr = err
}

func (m *MemoryAdapter) Insert(ctx context.Context, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCount > 0 {
		m.failCount--
		return m.failErr
	}
	if _, ok := m.items[item.ID]; ok {
		return fmt.Errorf("insert item %s: %w", item.ID, port.ErrDuplicateKey)
	}
	m.items[item.ID] = item
	m.order = append(m.order, item.ID)
	return nil
}

func (m *MemoryAdapter) List(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.InventoryItem, 0, len(m.order))
	for _, id := range m.order {
		items = append(items, m.items[id])
	}
	return items, nil
}

func (m *MemoryAdapter) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &item, nil
}

func (m *MemoryAdapter) Update(ctx context.Context, id string, fields domain.ItemFields, updatedAt time.Time) (*domain.InventoryItem, error) {
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

func (m *MemoryAdapter) Delete(ctx context.Context, id string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	delete(m.items, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return &item, nil
}

func (m *MemoryAdapter) AddSale(s domain.Sale) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ItemNames = slices.Clone(s.ItemNames)
	m.sales = append(m.sales, s)
}

func (m *MemoryAdapter) AddExpense(e domain.Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, e)
}

func (m *MemoryAdapter) SalesBetween(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	period := domain.Period{Start: from, End: to}
	var out []domain.Sale
	for _, s := range m.sales {
		if period.Contains(s.CreatedAt) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryAdapter) ExpensesBetween(ctx context.Context, from, to time.Time) ([]domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	period := domain.Period{Start: from, End: to}
	var out []domain.Expense
	for _, e := range m.expenses {
		if period.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

var (
	_ port.SequenceRepository = (*MemoryAdapter)(nil)
	_ port.ItemRepository     = (*MemoryAdapter)(nil)
	_ port.ReportRepository   = (*MemoryAdapter)(nil)
	_ port.SequenceRepository = (*MySQLAdapter)(nil)
	_ port.ItemRepository     = (*MySQLAdapter)(nil)
	_ port.ReportRepository   = (*MySQLAdapter)(nil)
	_ port.SequenceRepository = (*RedisSequenceAdapter)(nil)
)
