package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// EventPublisher announces committed state changes to interested consumers.
// Publishing is best-effort after commit; a publish failure never unwinds
// an order.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
	PublishStockDepleted(ctx context.Context, itemID string) error
}
