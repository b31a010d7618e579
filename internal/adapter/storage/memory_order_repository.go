package storage

import (
	"context"
	"sync"

	"github.com/rl1809/storefront/internal/core/domain"
)

// MemoryOrderRepository backs the memory storage driver. Orders are
// append-only; stored copies own their line slices so callers cannot
// mutate a committed order.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	ids    []string // insertion order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]domain.Order)}
}

func (m *MemoryOrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	stored := order
	stored.Lines = make([]domain.OrderLine, len(order.Lines))
	copy(stored.Lines, order.Lines)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[stored.ID] = stored
	m.ids = append(m.ids, stored.ID)
	return nil
}

func (m *MemoryOrderRepository) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return order, nil
}

func (m *MemoryOrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]domain.Order, 0, len(m.ids))
	for i := len(m.ids) - 1; i >= 0; i-- {
		orders = append(orders, m.orders[m.ids[i]])
	}
	return orders, nil
}
