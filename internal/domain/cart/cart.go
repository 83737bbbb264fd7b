// Package cart implements the per-session shopping cart: line items keyed by
// (name, size), selection-based totals and checkout snapshots.
package cart

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity a single cart line may hold. It fits
// the INTEGER quantity column of the postgres store.
const MaxQuantity = math.MaxInt32

// ErrNotFound is returned when a cart item id does not exist in the cart.
var ErrNotFound = fmt.Errorf("cart item not found")

// ErrEmptySelection is returned by checkout when no item is selected.
var ErrEmptySelection = &ValidationError{Message: "no items selected for checkout"}

var errQuantityTooLarge = &ValidationError{
	Field:   "quantity",
	Message: fmt.Sprintf("must not exceed %d", MaxQuantity),
}

// ValidationError describes a rejected cart operation input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Item is one cart line. At most one item exists per (Name, Size) pair.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Size     string          `json:"size"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
	Quantity int             `json:"quantity"`
	Selected bool            `json:"selected"`
	AddedAt  time.Time       `json:"added_at"`
}

// Subtotal returns Price × Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the ordered item list of one session.
type Cart struct {
	Items []Item `json:"items"`
}

// Summary holds the derived cart aggregates.
type Summary struct {
	// Count is the number of distinct lines.
	Count int
	// TotalAmount is the sum of Price × Quantity over selected items.
	TotalAmount decimal.Decimal
	// TotalItems is the sum of quantities over all items.
	TotalItems int
	// SelectedItems is the sum of quantities over selected items.
	SelectedItems int
}

// Add merges item into the cart. If a line with the same name and size
// exists its quantity grows by item.Quantity, otherwise item is appended
// as given. The cart is left unchanged when the resulting quantity would
// exceed MaxQuantity.
func (c *Cart) Add(item Item) error {
	if item.Quantity > MaxQuantity {
		return errQuantityTooLarge
	}
	for i := range c.Items {
		if c.Items[i].Name == item.Name && c.Items[i].Size == item.Size {
			if c.Items[i].Quantity > MaxQuantity-item.Quantity {
				return errQuantityTooLarge
			}
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

// Update applies a partial update to the item with the given id. A quantity
// of zero or less removes the item.
func (c *Cart) Update(id string, quantity *int, selected *bool) error {
	idx := c.index(id)
	if idx < 0 {
		return ErrNotFound
	}
	if quantity != nil && *quantity <= 0 {
		c.Remove(id)
		return nil
	}
	if quantity != nil && *quantity > MaxQuantity {
		return errQuantityTooLarge
	}
	if quantity != nil {
		c.Items[idx].Quantity = *quantity
	}
	if selected != nil {
		c.Items[idx].Selected = *selected
	}
	return nil
}

// Remove drops the item with the given id. Unknown ids are ignored.
func (c *Cart) Remove(id string) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// Summary computes the cart aggregates.
func (c *Cart) Summary() Summary {
	s := Summary{Count: len(c.Items), TotalAmount: decimal.Zero}
	for _, it := range c.Items {
		s.TotalItems += it.Quantity
		if it.Selected {
			s.SelectedItems += it.Quantity
			s.TotalAmount = s.TotalAmount.Add(it.Subtotal())
		}
	}
	return s
}

// Selected returns a copy of the selected items.
func (c *Cart) Selected() []Item {
	var out []Item
	for _, it := range c.Items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

func (c *Cart) index(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of c.
func (c *Cart) Clone() *Cart {
	out := &Cart{}
	if c.Items != nil {
		out.Items = make([]Item, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}

// Store persists carts by session id. Load returns an empty cart for an
// unknown or expired session.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
