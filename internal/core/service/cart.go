package service

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

// PriceLookup resolves an item's current price. found is false when the
// item no longer exists.
type PriceLookup func(itemID string) (price decimal.Decimal, found bool)

// Cart is one client's ephemeral purchase intent. It never touches the
// inventory store; stock is checked only when the order is placed.
type Cart struct {
	mu    sync.Mutex
	lines map[string]int
}

func NewCart() *Cart {
	return &Cart{lines: make(map[string]int)}
}

// AddItem increments the line's quantity, creating the line if absent.
// Stock is deliberately not checked here.
func (c *Cart) AddItem(itemID string, quantity int) error {
	if itemID == "" {
		return domain.NewValidationError("item_id", "must not be empty")
	}
	if quantity < 1 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[itemID] += quantity
	return nil
}

// RemoveOne decrements the line by one and drops it when it reaches zero.
func (c *Cart) RemoveOne(itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	quantity, ok := c.lines[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	if quantity <= 1 {
		delete(c.lines, itemID)
		return nil
	}
	c.lines[itemID] = quantity - 1
	return nil
}

// RemoveAll drops the line outright regardless of quantity. Removing an
// absent line is a no-op.
func (c *Cart) RemoveAll(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, itemID)
}

// Lines returns a snapshot sorted by item id.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]domain.CartLine, 0, len(c.lines))
	for itemID, quantity := range c.lines {
		lines = append(lines, domain.CartLine{ItemID: itemID, Quantity: quantity})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
	return lines
}

// Total recomputes against current prices on every call; prices are never
// cached at add time. Lines whose item has vanished are skipped and their
// ids returned so the caller can warn the user.
func (c *Cart) Total(lookup PriceLookup) (decimal.Decimal, []string) {
	total := decimal.Zero
	var skipped []string

	for _, line := range c.Lines() {
		price, found := lookup(line.ItemID)
		if !found {
			skipped = append(skipped, line.ItemID)
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, skipped
}

// Deduct subtracts committed units from a line, dropping it at zero.
// Units added to the same item after the order snapshot stay in the cart.
func (c *Cart) Deduct(itemID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := c.lines[itemID] - quantity
	if remaining <= 0 {
		delete(c.lines, itemID)
		return
	}
	c.lines[itemID] = remaining
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[string]int)
}

// CartManager hands out one cart per session id. Carts live in memory only
// and disappear with the process.
type CartManager struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

func NewCartManager() *CartManager {
	return &CartManager{carts: make(map[string]*Cart)}
}

// Cart returns the session's cart, creating it on first use.
func (m *CartManager) Cart(sessionID string) *Cart {
	m.mu.RLock()
	cart, ok := m.carts[sessionID]
	m.mu.RUnlock()
	if ok {
		return cart
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cart, ok = m.carts[sessionID]; ok {
		return cart
	}
	cart = NewCart()
	m.carts[sessionID] = cart
	return cart
}

// End discards a session's cart.
func (m *CartManager) End(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
}
