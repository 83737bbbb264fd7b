package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AddRequest holds the input for adding an item. Nil Quantity means one.
type AddRequest struct {
	Name     string
	Size     string
	Price    *decimal.Decimal
	ImageURL string
	Quantity *int
}

// Validate checks that every required field is present and sane.
func (r AddRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return &ValidationError{Field: "name", Message: "is required"}
	case strings.TrimSpace(r.Size) == "":
		return &ValidationError{Field: "size", Message: "is required"}
	case r.Price == nil:
		return &ValidationError{Field: "price", Message: "is required"}
	case r.Price.IsNegative():
		return &ValidationError{Field: "price", Message: "must not be negative"}
	case strings.TrimSpace(r.ImageURL) == "":
		return &ValidationError{Field: "image_url", Message: "is required"}
	case r.Quantity != nil && *r.Quantity <= 0:
		return &ValidationError{Field: "quantity", Message: "must be greater than 0"}
	case r.Quantity != nil && *r.Quantity > MaxQuantity:
		return errQuantityTooLarge
	}
	return nil
}

// UpdateRequest is a partial update of one item. Nil fields are left as is.
type UpdateRequest struct {
	ID       string
	Quantity *int
	Selected *bool
}

// Service runs cart operations against a session store. Each call loads the
// session cart, mutates it and writes it back; concurrent calls for the same
// session are not serialized and the last write wins.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string

	itemsAdded metric.Int64Counter
	checkouts  metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides item and order id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a cart Service.
func NewService(store Store, mp metric.MeterProvider, opts ...Option) (*Service, error) {
	meter := mp.Meter("github.com/xenking/ecom-gallery/internal/domain/cart")

	itemsAdded, err := meter.Int64Counter("cart.items.added",
		metric.WithDescription("Units added to carts"),
	)
	if err != nil {
		return nil, fmt.Errorf("create items counter: %w", err)
	}
	checkouts, err := meter.Int64Counter("cart.checkouts",
		metric.WithDescription("Checkout attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkouts counter: %w", err)
	}

	s := &Service{
		store:      store,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
		itemsAdded: itemsAdded,
		checkouts:  checkouts,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Add validates req and merges it into the session cart.
func (s *Service) Add(ctx context.Context, sessionID string, req AddRequest) (Summary, error) {
	if err := req.Validate(); err != nil {
		return Summary{}, err
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("load cart: %w", err)
	}
	err = c.Add(Item{
		ID:       s.newID(),
		Name:     strings.TrimSpace(req.Name),
		Size:     strings.TrimSpace(req.Size),
		Price:    *req.Price,
		ImageURL: req.ImageURL,
		Quantity: qty,
		Selected: true,
		AddedAt:  s.now().UTC(),
	})
	if err != nil {
		return Summary{}, err
	}
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return Summary{}, fmt.Errorf("save cart: %w", err)
	}

	s.itemsAdded.Add(ctx, int64(qty))
	return c.Summary(), nil
}

// Get returns the session cart and its aggregates.
func (s *Service) Get(ctx context.Context, sessionID string) (*Cart, Summary, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("load cart: %w", err)
	}
	return c, c.Summary(), nil
}

// Update applies req to the session cart. It returns ErrNotFound for an
// unknown item id.
func (s *Service) Update(ctx context.Context, sessionID string, req UpdateRequest) error {
	if req.ID == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	if req.Quantity != nil && *req.Quantity > MaxQuantity {
		return errQuantityTooLarge
	}
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if err := c.Update(req.ID, req.Quantity, req.Selected); err != nil {
		return err
	}
	if req.Quantity == nil && req.Selected == nil {
		return nil
	}
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Remove drops an item from the session cart. Removing an absent id
// succeeds.
func (s *Service) Remove(ctx context.Context, sessionID, id string) (Summary, error) {
	if id == "" {
		return Summary{}, &ValidationError{Field: "id", Message: "is required"}
	}
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("load cart: %w", err)
	}
	c.Remove(id)
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return Summary{}, fmt.Errorf("save cart: %w", err)
	}
	return c.Summary(), nil
}

// Clear empties the session cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// Checkout builds an ephemeral order from the selected items. No payment
// is taken and nothing is persisted.
func (s *Service) Checkout(ctx context.Context, sessionID string) (*Order, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	o, err := c.Checkout(s.newID(), s.now().UTC())
	if err != nil {
		s.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "rejected")))
		return nil, err
	}
	s.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "created")))
	return o, nil
}
