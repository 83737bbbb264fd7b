//go:build integration

package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/ecom-gallery/internal/domain/cart"
	"github.com/xenking/ecom-gallery/internal/storage/storetest"
)

func TestCartStore(t *testing.T) {
	ctx := t.Context()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "gallery",
				"POSTGRES_PASSWORD": "gallery",
				"POSTGRES_DB":       "gallery",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	endpoint, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)

	pool, err := NewPool(ctx, fmt.Sprintf("postgres://gallery:gallery@%s/gallery?sslmode=disable", endpoint))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool), "migrations must be idempotent")

	store := NewCartStore(pool, time.Hour)
	require.NoError(t, store.Ping(ctx))

	storetest.Run(t, store)

	t.Run("Purge", func(t *testing.T) {
		now := time.Now()
		store.now = func() time.Time { return now }

		c := &cart.Cart{Items: []cart.Item{{ID: "a", Name: "Cap", Size: "S", Price: decimal.NewFromInt(5), ImageURL: "u", Quantity: 1, Selected: true, AddedAt: now}}}
		require.NoError(t, store.Save(t.Context(), "expiring", c))

		now = now.Add(2 * time.Hour)
		got, err := store.Load(t.Context(), "expiring")
		require.NoError(t, err)
		assert.Empty(t, got.Items)

		n, err := store.Purge(t.Context())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))
	})
}
