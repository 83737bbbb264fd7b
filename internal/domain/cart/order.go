package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusPendingPayment is the status of every order produced by checkout:
// no payment processor is involved.
const StatusPendingPayment = "pending_payment"

// Order is an ephemeral checkout result. It is returned to the caller and
// never stored.
type Order struct {
	ID          string
	Items       []Item
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	Status      string
}

// Checkout snapshots the selected items into an order. The snapshot is
// independent of later cart mutations.
func (c *Cart) Checkout(orderID string, now time.Time) (*Order, error) {
	items := c.Selected()
	if len(items) == 0 {
		return nil, ErrEmptySelection
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}

	return &Order{
		ID:          orderID,
		Items:       items,
		TotalAmount: total,
		CreatedAt:   now,
		Status:      StatusPendingPayment,
	}, nil
}
