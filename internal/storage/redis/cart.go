// Package redis stores session carts as JSON documents in Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xenking/ecom-gallery/internal/domain/cart"
)

var (
	_ cart.Store  = (*CartStore)(nil)
	_ cart.Pinger = (*CartStore)(nil)
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces cart keys.
	Prefix string
	// TTL is refreshed on every write; zero keeps carts forever.
	TTL time.Duration
}

// CartStore implements cart.Store with one key per session.
type CartStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCartStore creates a client for opts. Addr is either host:port or a
// redis:// (rediss://) URL; URL credentials and database take precedence.
func NewCartStore(opts Options) (*CartStore, error) {
	ro := &redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
	if strings.HasPrefix(opts.Addr, "redis://") || strings.HasPrefix(opts.Addr, "rediss://") {
		parsed, err := redis.ParseURL(opts.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if parsed.Password == "" {
			parsed.Password = opts.Password
		}
		ro = parsed
	}
	return NewCartStoreWithClient(redis.NewClient(ro), opts.Prefix, opts.TTL), nil
}

// NewCartStoreWithClient wraps an existing client.
func NewCartStoreWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *CartStore {
	if prefix == "" {
		prefix = "gallery"
	}
	return &CartStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *CartStore) key(sessionID string) string {
	return fmt.Sprintf("%s:cart:%s", s.prefix, sessionID)
}

// Load reads the session cart; a missing key is an empty cart.
func (s *CartStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return &cart.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart %q: %w", sessionID, err)
	}

	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart %q: %w", sessionID, err)
	}
	return &c, nil
}

// Save writes the session cart, deleting the key for an empty cart.
func (s *CartStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	if len(c.Items) == 0 {
		return s.Delete(ctx, sessionID)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart %q: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set cart %q: %w", sessionID, err)
	}
	return nil
}

// Delete removes the session cart.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete cart %q: %w", sessionID, err)
	}
	return nil
}

// Ping checks the connection.
func (s *CartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *CartStore) Close() error {
	return s.client.Close()
}
