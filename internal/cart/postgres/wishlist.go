package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronoshop/storefront/internal/cart/domain"
)

type WishlistRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewWishlistRepository(log *slog.Logger, pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{log: log, pool: pool}
}

func (r *WishlistRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wishlists (
			user_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, product_id)
		)
	`)
	return err
}

func (r *WishlistRepository) Add(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wishlists (user_id, product_id, created_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID, time.Now().UTC())
	return err
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM wishlists WHERE user_id=$1 AND product_id=$2`, userID, productID)
	return err
}

func (r *WishlistRepository) List(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, product_id, created_at
		FROM wishlists WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.WishlistEntry
	for rows.Next() {
		var e domain.WishlistEntry
		if err := rows.Scan(&e.UserID, &e.ProductID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
