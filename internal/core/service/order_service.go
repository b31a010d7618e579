package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const rollbackTimeout = 5 * time.Second

// OrderService converts purchase intent into committed orders. The one
// guarantee that matters: across arbitrarily interleaved attempts, units
// sold never exceed stock, and a failed attempt leaves inventory exactly
// as it was.
type OrderService struct {
	inventory port.InventoryRepository
	orders    port.OrderRepository
	cache     port.CacheRepository // optional: idempotency + stock mirror
	events    port.EventPublisher  // optional: post-commit announcements
}

func NewOrderService(inventory port.InventoryRepository, orders port.OrderRepository,
	cache port.CacheRepository, events port.EventPublisher) *OrderService {
	return &OrderService{
		inventory: inventory,
		orders:    orders,
		cache:     cache,
		events:    events,
	}
}

type OrderLineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// PlaceOrder reserves every line, then persists the order; any failure
// along the way releases every reservation already made. Lines are
// reserved in ascending item id order so two orders over overlapping item
// sets always acquire per-item exclusion in the same relative order.
func (s *OrderService) PlaceOrder(ctx context.Context, requestID string, lines []OrderLineRequest) (domain.Order, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return domain.Order{}, err
	}

	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// The idempotency key marks a committed order. An attempt that fails
	// after claiming it must release it, or the retry the caller is told
	// to make would bounce off its own failed attempt.
	idemKey := ""
	if s.cache != nil && requestID != "" {
		idemKey = "order:" + requestID
		ok, err := s.cache.SetIdempotency(ctx, idemKey)
		if err != nil {
			return domain.Order{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.Order{}, domain.ErrDuplicateRequest
		}
	}

	reserved := make([]domain.OrderLine, 0, len(ids))
	var depleted []string

	for _, id := range ids {
		// Caller-initiated cancellation takes the same rollback path as a
		// business failure.
		if err := ctx.Err(); err != nil {
			s.rollback(reserved)
			s.releaseIdempotency(idemKey)
			return domain.Order{}, fmt.Errorf("order cancelled: %w", err)
		}

		quantity := merged[id]
		snapshot, err := s.inventory.Reserve(ctx, id, quantity)
		if err != nil {
			s.rollback(reserved)
			s.releaseIdempotency(idemKey)
			return domain.Order{}, fmt.Errorf("reserve %s: %w", id, err)
		}

		reserved = append(reserved, domain.OrderLine{
			ItemID:    id,
			Name:      snapshot.Name,
			Quantity:  quantity,
			UnitPrice: snapshot.Price,
			Subtotal:  snapshot.Price.Mul(decimal.NewFromInt(int64(quantity))),
		})
		if snapshot.Quantity == 0 {
			depleted = append(depleted, id)
		}
		s.mirrorStock(id, snapshot.Quantity)
	}

	total := decimal.Zero
	for _, line := range reserved {
		total = total.Add(line.Subtotal)
	}

	order := domain.Order{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Lines:     reserved,
		Total:     total,
		Status:    domain.OrderStatusConfirmed,
		CreatedAt: time.Now(),
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Msg("failed to persist order")
		s.rollback(reserved)
		s.releaseIdempotency(idemKey)
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.announce(order, depleted)
	return order, nil
}

// PlaceOrderFromCart places an order for every line in the cart and, only
// after a confirmed commit, deducts exactly the committed quantities.
func (s *OrderService) PlaceOrderFromCart(ctx context.Context, requestID string, cart *Cart) (domain.Order, error) {
	cartLines := cart.Lines()
	if len(cartLines) == 0 {
		return domain.Order{}, domain.NewValidationError("cart", "is empty")
	}

	lines := make([]OrderLineRequest, 0, len(cartLines))
	for _, line := range cartLines {
		lines = append(lines, OrderLineRequest{ItemID: line.ItemID, Quantity: line.Quantity})
	}

	order, err := s.PlaceOrder(ctx, requestID, lines)
	if err != nil {
		return domain.Order{}, err
	}

	for _, line := range order.Lines {
		cart.Deduct(line.ItemID, line.Quantity)
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx)
}

// rollback releases reservations in reverse order. It runs on a fresh
// context: the caller's context may already be cancelled, and a rollback
// must never be abandoned half-way.
func (s *OrderService) rollback(reserved []domain.OrderLine) {
	if len(reserved) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	for i := len(reserved) - 1; i >= 0; i-- {
		line := reserved[i]
		snapshot, err := s.inventory.Release(ctx, line.ItemID, line.Quantity)
		if err != nil {
			// A vanished item has nothing to restore; anything else leaks
			// reserved units and needs operator attention.
			log.Error().Err(err).
				Str("item_id", line.ItemID).
				Int("quantity", line.Quantity).
				Msg("CRITICAL: rollback failed")
			continue
		}
		s.mirrorStock(line.ItemID, snapshot.Quantity)
	}
}

func (s *OrderService) announce(order domain.Order, depleted []string) {
	if s.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	if err := s.events.PublishOrderCreated(ctx, order); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish OrderCreated")
	}
	for _, itemID := range depleted {
		if err := s.events.PublishStockDepleted(ctx, itemID); err != nil {
			log.Warn().Err(err).Str("item_id", itemID).Msg("failed to publish StockDepleted")
		}
	}
}

// releaseIdempotency frees a request id claimed by a failed attempt. It
// runs on a fresh context like rollback; a leaked key here blocks the
// caller's retry until the TTL expires.
func (s *OrderService) releaseIdempotency(key string) {
	if s.cache == nil || key == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.cache.DeleteIdempotency(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to release idempotency key")
	}
}

func (s *OrderService) mirrorStock(itemID string, quantity int) {
	if s.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.cache.SetStock(ctx, itemID, quantity); err != nil {
		log.Warn().Err(err).Str("item_id", itemID).Msg("failed to mirror stock")
	}
}

// mergeLines validates and collapses duplicate item ids into one line each.
func mergeLines(lines []OrderLineRequest) (map[string]int, error) {
	if len(lines) == 0 {
		return nil, domain.NewValidationError("lines", "order must contain at least one line")
	}

	merged := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ItemID == "" {
			return nil, domain.NewValidationError("item_id", "must not be empty")
		}
		if line.Quantity < 1 {
			return nil, domain.NewValidationError("quantity", "must be at least 1")
		}
		merged[line.ItemID] += line.Quantity
	}
	return merged, nil
}
