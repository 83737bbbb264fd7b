package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/ecom-gallery/internal/domain/cart"
)

var (
	_ cart.Store  = (*CartStore)(nil)
	_ cart.Pinger = (*CartStore)(nil)
)

var cartColumns = []string{
	"session_id", "id", "position", "name", "size", "price",
	"image_url", "quantity", "selected", "added_at", "updated_at",
}

// CartStore implements cart.Store with one row per cart item. Rows of a
// session expire ttl after the session's last write.
type CartStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewCartStore returns a CartStore using pool. A zero ttl disables expiry.
func NewCartStore(pool *pgxpool.Pool, ttl time.Duration) *CartStore {
	return &CartStore{pool: pool, ttl: ttl, now: time.Now}
}

func (s *CartStore) cutoff() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(-s.ttl)
}

// Load reads the session's items in insertion order.
func (s *CartStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, size, price, image_url, quantity, selected, added_at
		FROM cart_items
		WHERE session_id = $1 AND updated_at > $2
		ORDER BY position`,
		sessionID, s.cutoff(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying cart %q: %w", sessionID, err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ID, &it.Name, &it.Size, &it.Price, &it.ImageURL, &it.Quantity, &it.Selected, &it.AddedAt)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning cart %q: %w", sessionID, err)
	}
	if len(items) == 0 {
		return &cart.Cart{}, nil
	}
	return &cart.Cart{Items: items}, nil
}

// Save replaces the session's rows with the items of c in one transaction.
func (s *CartStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clearing cart %q: %w", sessionID, err)
	}

	if len(c.Items) > 0 {
		now := s.now()
		rows := make([][]any, len(c.Items))
		for i, it := range c.Items {
			rows[i] = []any{
				sessionID, it.ID, i, it.Name, it.Size, it.Price,
				it.ImageURL, it.Quantity, it.Selected, it.AddedAt, now,
			}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"cart_items"}, cartColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("writing cart %q: %w", sessionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing cart %q: %w", sessionID, err)
	}
	return nil
}

// Delete removes every row of the session.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("deleting cart %q: %w", sessionID, err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (s *CartStore) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE updated_at <= $1`, s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("purging carts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks the connection.
func (s *CartStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
