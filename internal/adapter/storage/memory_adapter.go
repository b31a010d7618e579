package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

// itemEntry guards one item with its own mutex so contention on one id
// never blocks operations on another.
type itemEntry struct {
	mu      sync.Mutex
	item    domain.Item
	deleted bool
}

// MemoryAdapter is the in-process InventoryRepository. The map mutex only
// protects membership; all field mutation happens under the per-item lock,
// which makes Reserve a single atomic check-and-decrement.
type MemoryAdapter struct {
	mu    sync.RWMutex
	items map[string]*itemEntry
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{items: make(map[string]*itemEntry)}
}

func (m *MemoryAdapter) entry(id string) (*itemEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[id]
	return e, ok
}

func (m *MemoryAdapter) Create(ctx context.Context, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[item.ID]; exists {
		return domain.NewValidationError("id", "already exists")
	}
	m.items[item.ID] = &itemEntry{item: item}
	return nil
}

func (m *MemoryAdapter) Get(ctx context.Context, id string) (domain.Item, error) {
	e, ok := m.entry(id)
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Item{}, domain.ErrNotFound
	}
	return e.item, nil
}

func (m *MemoryAdapter) List(ctx context.Context) ([]domain.Item, error) {
	m.mu.RLock()
	entries := make([]*itemEntry, 0, len(m.items))
	for _, e := range m.items {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	items := make([]domain.Item, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			items = append(items, e.item)
		}
		e.mu.Unlock()
	}
	return items, nil
}

func (m *MemoryAdapter) Update(ctx context.Context, id string, patch domain.ItemPatch) (domain.Item, error) {
	e, ok := m.entry(id)
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Item{}, domain.ErrNotFound
	}

	if patch.Name != nil {
		e.item.Name = *patch.Name
	}
	if patch.Quantity != nil {
		e.item.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		e.item.Price = *patch.Price
	}
	if patch.Description != nil {
		e.item.Description = *patch.Description
	}
	e.item.Version++
	e.item.UpdatedAt = time.Now()
	return e.item, nil
}

func (m *MemoryAdapter) Delete(ctx context.Context, id string) error {
	e, ok := m.entry(id)
	if !ok {
		return domain.ErrNotFound
	}

	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return domain.ErrNotFound
	}
	e.deleted = true
	e.mu.Unlock()

	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryAdapter) Reserve(ctx context.Context, id string, amount int) (domain.Item, error) {
	e, ok := m.entry(id)
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Item{}, domain.ErrNotFound
	}
	if e.item.Quantity < amount {
		return domain.Item{}, domain.ErrInsufficientStock
	}
	e.item.Quantity -= amount
	e.item.Version++
	e.item.UpdatedAt = time.Now()
	return e.item, nil
}

func (m *MemoryAdapter) Release(ctx context.Context, id string, amount int) (domain.Item, error) {
	e, ok := m.entry(id)
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Item{}, domain.ErrNotFound
	}
	e.item.Quantity += amount
	e.item.Version++
	e.item.UpdatedAt = time.Now()
	return e.item, nil
}
