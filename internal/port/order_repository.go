package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder persists a committed order with its lines. A failure here
	// triggers rollback of the order's reservations.
	CreateOrder(ctx context.Context, order domain.Order) error

	// GetOrder retrieves an order by id, or domain.ErrNotFound.
	GetOrder(ctx context.Context, id string) (domain.Order, error)

	// ListOrders returns all committed orders, newest first.
	ListOrders(ctx context.Context) ([]domain.Order, error)
}
