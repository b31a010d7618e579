package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusReserving  OrderStatus = "reserving"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusRolledBack OrderStatus = "rolled_back"
)

// OrderLine records one item of a committed order. Name and UnitPrice are
// captured at commit time; later edits or deletion of the item do not
// change them.
type OrderLine struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is immutable once created. It represents a committed stock
// decrement and is never edited afterwards.
type Order struct {
	ID        string          `json:"id"`
	RequestID string          `json:"request_id,omitempty"`
	Lines     []OrderLine     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
