package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// InventoryRepository is the authoritative store of items. Implementations
// must make Reserve, Release, Update and Delete mutually exclusive per item
// id: two concurrent Reserve calls must never both observe sufficient stock
// for the same units.
type InventoryRepository interface {
	// Create inserts a fully validated item.
	Create(ctx context.Context, item domain.Item) error

	// Get returns a consistent snapshot of one item, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (domain.Item, error)

	// List returns a point-in-time consistent snapshot of all items, in no
	// particular order.
	List(ctx context.Context) ([]domain.Item, error)

	// Update applies only the supplied fields atomically and returns the
	// merged item.
	Update(ctx context.Context, id string, patch domain.ItemPatch) (domain.Item, error)

	// Delete removes the item; the id never resolves to a record again.
	Delete(ctx context.Context, id string) error

	// Reserve atomically checks quantity >= amount and decrements,
	// returning the post-decrement snapshot. Fails with
	// domain.ErrInsufficientStock (no change) or domain.ErrNotFound.
	Reserve(ctx context.Context, id string, amount int) (domain.Item, error)

	// Release re-increments previously reserved stock (rollback). Releasing
	// against a deleted item fails with domain.ErrNotFound.
	Release(ctx context.Context, id string, amount int) (domain.Item, error)
}
