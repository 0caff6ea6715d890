// internal/domain/cart/entity.go
package cart

import "github.com/shopspring/decimal"

// ItemInput is what a presentation component hands to AddItem.
// Quantity is not part of the input: every add counts as one unit.
type ItemInput struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	ImageRef  string
}

// LineItem represents one product entry in the cart.
// ID is the product id and the unique key within a cart.
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"imageRef"`
}

// Subtotal returns UnitPrice × Quantity.
func (it LineItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// State is a read-only snapshot of a cart.
//   - Items keeps insertion order
//   - TotalItems / TotalAmount are derived from Items, never stored apart from them
//   - Version increases by one for every effective mutation
type State struct {
	Items       []LineItem      `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Version     uint64          `json:"version"`
}

// Find returns the line item for id.
func (s State) Find(id string) (LineItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return LineItem{}, false
}

// IsEmpty reports whether the cart holds no line items.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// computeState folds items into a State.
// Totals are recomputed from scratch on every call (no incremental patching).
func computeState(items []LineItem, version uint64) State {
	out := State{
		Items:       make([]LineItem, len(items)),
		TotalAmount: decimal.Zero,
		Version:     version,
	}
	copy(out.Items, items)

	for _, it := range items {
		out.TotalItems += it.Quantity
		out.TotalAmount = out.TotalAmount.Add(it.Subtotal())
	}
	return out
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

func normalizePrice(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}
