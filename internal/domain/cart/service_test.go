package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

// --- Mock implementations ---

type mockStore struct {
	carts   map[string]*Cart
	saves   int
	loadErr error
	saveErr error
}

func newMockStore() *mockStore {
	return &mockStore{carts: make(map[string]*Cart)}
}

func (m *mockStore) Load(_ context.Context, sessionID string) (*Cart, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	c, ok := m.carts[sessionID]
	if !ok {
		return &Cart{}, nil
	}
	return c.Clone(), nil
}

func (m *mockStore) Save(_ context.Context, sessionID string, c *Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.carts[sessionID] = c.Clone()
	return nil
}

func (m *mockStore) Delete(_ context.Context, sessionID string) error {
	delete(m.carts, sessionID)
	return nil
}

// --- Helpers ---

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	n := 0
	svc, err := NewService(store, noop.NewMeterProvider(),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	require.NoError(t, err)
	return svc
}

func addReq(name, size, price string, qty *int) AddRequest {
	p := decimal.RequireFromString(price)
	return AddRequest{
		Name:     name,
		Size:     size,
		Price:    &p,
		ImageURL: "https://raw.example.com/" + name + ".png",
		Quantity: qty,
	}
}

// --- Tests ---

func TestService_AddAccumulatesQuantity(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	quantities := []*int{nil, intPtr(2), intPtr(3)}
	var sum Summary
	var err error
	for _, q := range quantities {
		sum, err = svc.Add(ctx, "s1", addReq("Shirt", "M", "899", q))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, sum.Count)
	assert.Equal(t, 6, sum.TotalItems)

	c := store.carts["s1"]
	require.Len(t, c.Items, 1)
	assert.Equal(t, "id-1", c.Items[0].ID)
	assert.Equal(t, 6, c.Items[0].Quantity)
	assert.True(t, c.Items[0].Selected)
	assert.Equal(t, fixedNow, c.Items[0].AddedAt)
}

func TestService_AddRejectsQuantityOverflow(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "899", intPtr(MaxQuantity)))
	require.NoError(t, err)

	_, err = svc.Add(ctx, "s1", addReq("Shirt", "M", "899", intPtr(1)))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "quantity", vErr.Field)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, MaxQuantity, store.carts["s1"].Items[0].Quantity)
}

func TestService_AddDistinctSizes(t *testing.T) {
	svc := newTestService(t, newMockStore())
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "899", nil))
	require.NoError(t, err)
	sum, err := svc.Add(ctx, "s1", addReq("Shirt", "L", "999", intPtr(2)))
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 3, sum.TotalItems)
	assert.True(t, decimal.NewFromInt(2897).Equal(sum.TotalAmount))
}

func TestService_AddSessionsAreIsolated(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "899", nil))
	require.NoError(t, err)

	c, sum, err := svc.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, sum.Count)
}

func TestService_AddValidation(t *testing.T) {
	price := decimal.NewFromInt(10)
	negative := decimal.NewFromInt(-1)

	tests := []struct {
		name      string
		req       AddRequest
		wantField string
	}{
		{"missing name", AddRequest{Size: "M", Price: &price, ImageURL: "u"}, "name"},
		{"missing size", AddRequest{Name: "n", Price: &price, ImageURL: "u"}, "size"},
		{"missing price", AddRequest{Name: "n", Size: "M", ImageURL: "u"}, "price"},
		{"negative price", AddRequest{Name: "n", Size: "M", Price: &negative, ImageURL: "u"}, "price"},
		{"missing image", AddRequest{Name: "n", Size: "M", Price: &price}, "image_url"},
		{"zero quantity", AddRequest{Name: "n", Size: "M", Price: &price, ImageURL: "u", Quantity: intPtr(0)}, "quantity"},
		{"quantity too large", AddRequest{Name: "n", Size: "M", Price: &price, ImageURL: "u", Quantity: intPtr(MaxQuantity + 1)}, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			svc := newTestService(t, store)

			_, err := svc.Add(context.Background(), "s1", tt.req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.Zero(t, store.saves)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		svc := newTestService(t, newMockStore())
		err := svc.Update(ctx, "s1", UpdateRequest{ID: "nope", Quantity: intPtr(2)})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deselect excludes from total", func(t *testing.T) {
		svc := newTestService(t, newMockStore())
		_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "10", intPtr(2)))
		require.NoError(t, err)
		_, err = svc.Add(ctx, "s1", addReq("Hat", "L", "100", intPtr(5)))
		require.NoError(t, err)

		require.NoError(t, svc.Update(ctx, "s1", UpdateRequest{ID: "id-2", Selected: boolPtr(false)}))

		_, sum, err := svc.Get(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(20).Equal(sum.TotalAmount))
		assert.Equal(t, 7, sum.TotalItems)
		assert.Equal(t, 2, sum.SelectedItems)
	})

	t.Run("zero quantity removes", func(t *testing.T) {
		svc := newTestService(t, newMockStore())
		_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "10", nil))
		require.NoError(t, err)

		require.NoError(t, svc.Update(ctx, "s1", UpdateRequest{ID: "id-1", Quantity: intPtr(0)}))

		c, _, err := svc.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, c.Items)
	})

	t.Run("empty update does not write", func(t *testing.T) {
		store := newMockStore()
		svc := newTestService(t, store)
		_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "10", nil))
		require.NoError(t, err)

		require.NoError(t, svc.Update(ctx, "s1", UpdateRequest{ID: "id-1"}))
		assert.Equal(t, 1, store.saves)
	})

	t.Run("quantity too large", func(t *testing.T) {
		store := newMockStore()
		svc := newTestService(t, store)
		_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "10", nil))
		require.NoError(t, err)

		err = svc.Update(ctx, "s1", UpdateRequest{ID: "id-1", Quantity: intPtr(MaxQuantity + 1)})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "quantity", vErr.Field)
		assert.Equal(t, 1, store.saves)
	})

	t.Run("missing id", func(t *testing.T) {
		svc := newTestService(t, newMockStore())
		err := svc.Update(ctx, "s1", UpdateRequest{})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestService_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newMockStore())

	_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "10", nil))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "s1", addReq("Hat", "L", "5", nil))
	require.NoError(t, err)

	sum, err := svc.Remove(ctx, "s1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)

	sum, err = svc.Remove(ctx, "s1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)

	require.NoError(t, svc.Clear(ctx, "s1"))
	c, sum, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, sum.TotalItems)
}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing selected", func(t *testing.T) {
		svc := newTestService(t, newMockStore())
		_, err := svc.Checkout(ctx, "s1")
		require.ErrorIs(t, err, ErrEmptySelection)
	})

	t.Run("total over selected snapshot", func(t *testing.T) {
		store := newMockStore()
		svc := newTestService(t, store)
		_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "899", intPtr(2)))
		require.NoError(t, err)
		_, err = svc.Add(ctx, "s1", addReq("Hat", "L", "1000", nil))
		require.NoError(t, err)
		require.NoError(t, svc.Update(ctx, "s1", UpdateRequest{ID: "id-2", Selected: boolPtr(false)}))

		o, err := svc.Checkout(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "id-3", o.ID)
		assert.True(t, decimal.NewFromInt(1798).Equal(o.TotalAmount))
		assert.Equal(t, fixedNow, o.CreatedAt)

		// Cart stays intact and later changes do not affect the order.
		_, err = svc.Add(ctx, "s1", addReq("Shirt", "M", "899", intPtr(5)))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1798).Equal(o.TotalAmount))
		assert.Equal(t, 2, o.Items[0].Quantity)
	})
}

func TestService_StoreErrors(t *testing.T) {
	ctx := context.Background()

	store := newMockStore()
	store.loadErr = errors.New("backend down")
	svc := newTestService(t, store)

	_, err := svc.Add(ctx, "s1", addReq("Shirt", "M", "10", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load cart")

	store.loadErr = nil
	store.saveErr = errors.New("read only")
	_, err = svc.Add(ctx, "s1", addReq("Shirt", "M", "10", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save cart")
}
