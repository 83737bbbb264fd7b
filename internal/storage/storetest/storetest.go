// Package storetest holds behaviour tests shared by every cart.Store
// implementation.
package storetest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/ecom-gallery/internal/domain/cart"
)

// Run exercises store against the cart.Store contract.
func Run(t *testing.T, store cart.Store) {
	t.Helper()

	t.Run("UnknownSessionIsEmpty", func(t *testing.T) {
		c, err := store.Load(t.Context(), uuid.NewString())
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Empty(t, c.Items)
	})

	t.Run("SaveLoadPreservesItemsAndOrder", func(t *testing.T) {
		session := uuid.NewString()
		added := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		want := &cart.Cart{Items: []cart.Item{
			{
				ID: "b", Name: "Cotton Shirt", Size: "M", Price: decimal.RequireFromString("999.50"),
				ImageURL: "https://raw.example.com/shirt.png", Quantity: 2, Selected: true, AddedAt: added,
			},
			{
				ID: "a", Name: "Hoodie", Size: "XL", Price: decimal.RequireFromString("2499"),
				ImageURL: "https://raw.example.com/hoodie.png", Quantity: 1, Selected: false, AddedAt: added,
			},
		}}

		require.NoError(t, store.Save(t.Context(), session, want))

		got, err := store.Load(t.Context(), session)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		for i := range want.Items {
			w, g := want.Items[i], got.Items[i]
			assert.Equal(t, w.ID, g.ID)
			assert.Equal(t, w.Name, g.Name)
			assert.Equal(t, w.Size, g.Size)
			assert.True(t, w.Price.Equal(g.Price), "price %s != %s", w.Price, g.Price)
			assert.Equal(t, w.ImageURL, g.ImageURL)
			assert.Equal(t, w.Quantity, g.Quantity)
			assert.Equal(t, w.Selected, g.Selected)
			assert.True(t, w.AddedAt.Equal(g.AddedAt))
		}
	})

	t.Run("LoadedCartIsACopy", func(t *testing.T) {
		session := uuid.NewString()
		c := &cart.Cart{Items: []cart.Item{{ID: "a", Name: "Cap", Size: "S", Price: decimal.NewFromInt(5), ImageURL: "u", Quantity: 1, Selected: true}}}
		require.NoError(t, store.Save(t.Context(), session, c))

		loaded, err := store.Load(t.Context(), session)
		require.NoError(t, err)
		loaded.Items[0].Quantity = 50

		again, err := store.Load(t.Context(), session)
		require.NoError(t, err)
		assert.Equal(t, 1, again.Items[0].Quantity)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		session := uuid.NewString()
		c := &cart.Cart{Items: []cart.Item{
			{ID: "a", Name: "Cap", Size: "S", Price: decimal.NewFromInt(5), ImageURL: "u", Quantity: 1, Selected: true},
			{ID: "b", Name: "Cap", Size: "M", Price: decimal.NewFromInt(6), ImageURL: "u", Quantity: 1, Selected: true},
		}}
		require.NoError(t, store.Save(t.Context(), session, c))

		c.Remove("a")
		require.NoError(t, store.Save(t.Context(), session, c))

		got, err := store.Load(t.Context(), session)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "b", got.Items[0].ID)
	})

	t.Run("SaveEmptyAndDelete", func(t *testing.T) {
		session := uuid.NewString()
		c := &cart.Cart{Items: []cart.Item{{ID: "a", Name: "Cap", Size: "S", Price: decimal.NewFromInt(5), ImageURL: "u", Quantity: 1, Selected: true}}}
		require.NoError(t, store.Save(t.Context(), session, c))
		require.NoError(t, store.Save(t.Context(), session, &cart.Cart{}))

		got, err := store.Load(t.Context(), session)
		require.NoError(t, err)
		assert.Empty(t, got.Items)

		require.NoError(t, store.Save(t.Context(), session, c))
		require.NoError(t, store.Delete(t.Context(), session))
		require.NoError(t, store.Delete(t.Context(), session))

		got, err = store.Load(t.Context(), session)
		require.NoError(t, err)
		assert.Empty(t, got.Items)
	})

	t.Run("SessionsAreIsolated", func(t *testing.T) {
		s1, s2 := uuid.NewString(), uuid.NewString()
		c := &cart.Cart{Items: []cart.Item{{ID: "a", Name: "Cap", Size: "S", Price: decimal.NewFromInt(5), ImageURL: "u", Quantity: 1, Selected: true}}}
		require.NoError(t, store.Save(t.Context(), s1, c))

		got, err := store.Load(t.Context(), s2)
		require.NoError(t, err)
		assert.Empty(t, got.Items)
	})
}
