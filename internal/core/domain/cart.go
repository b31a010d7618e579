package domain

// CartLine is a weak reference into inventory: the item may be deleted or
// repriced after the line is added, so totals and checkout always
// re-validate against the store.
type CartLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}
