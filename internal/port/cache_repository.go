package port

import "context"

// CacheRepository is the read-side stock projection plus the idempotency
// guard for order submissions. Stock authority lives in
// InventoryRepository; the cache only mirrors counts for cheap catalog
// reads.
type CacheRepository interface {
	// SetStock mirrors the current stock count for an item.
	SetStock(ctx context.Context, itemID string, quantity int) error

	// GetStock reads a mirrored count; found is false when the item has
	// never been mirrored or was deleted.
	GetStock(ctx context.Context, itemID string) (quantity int, found bool, err error)

	// DeleteStock drops the mirror for a deleted item.
	DeleteStock(ctx context.Context, itemID string) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// DeleteIdempotency releases a key claimed by an attempt that did not
	// commit, so the same request id can be retried.
	DeleteIdempotency(ctx context.Context, key string) error
}
