package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxNameLength mirrors the 255-character limit enforced on item names.
const MaxNameLength = 255

// Item is an inventory record. Quantity is the only field subject to
// concurrent contention; Price is an exact decimal, never a binary float.
type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Version     int             `json:"-"` // bumped on every mutation
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ItemPatch carries a partial update; nil fields are left unchanged.
type ItemPatch struct {
	Name        *string          `json:"name"`
	Quantity    *int             `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
}

// Empty reports whether the patch supplies no fields at all.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Quantity == nil && p.Price == nil && p.Description == nil
}
