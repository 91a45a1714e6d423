// Package redis holds the cart store. Carts are anonymous client state keyed
// by a client-generated id, so they live in Redis with a sliding TTL rather
// than in Postgres.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chronoshop/storefront/internal/cart/domain"
)

const cartTTL = 30 * 24 * time.Hour

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func key(cartID string) string {
	return "cart:" + cartID
}

func (s *Store) Get(ctx context.Context, cartID string) (domain.Cart, error) {
	raw, err := s.rdb.Get(ctx, key(cartID)).Bytes()
	if err == redis.Nil {
		return domain.Cart{ID: cartID, Items: []domain.Item{}}, nil
	}
	if err != nil {
		return domain.Cart{}, err
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// SetItem adds or replaces a line; quantity zero removes it.
func (s *Store) SetItem(ctx context.Context, cartID string, item domain.Item) (domain.Cart, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}

	items := cart.Items[:0]
	for _, existing := range cart.Items {
		if existing.ProductID != item.ProductID {
			items = append(items, existing)
		}
	}
	if item.Quantity > 0 {
		items = append(items, item)
	}
	cart.Items = items

	cart.SubtotalC = 0
	for _, it := range cart.Items {
		cart.SubtotalC += int64(it.Quantity) * it.PriceCents
	}
	return cart, s.save(ctx, cart)
}

func (s *Store) Clear(ctx context.Context, cartID string) error {
	return s.rdb.Del(ctx, key(cartID)).Err()
}

func (s *Store) save(ctx context.Context, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(cart.ID), raw, cartTTL).Err()
}
