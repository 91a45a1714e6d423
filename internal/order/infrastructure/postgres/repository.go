package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronoshop/storefront/internal/order/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			transaction_id TEXT NOT NULL DEFAULT '',
			gateway_order_id TEXT NOT NULL DEFAULT '',
			total_cents BIGINT NOT NULL,
			shipping_address TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS order_items (
			order_id TEXT NOT NULL REFERENCES orders(id),
			product_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL,
			price_cents BIGINT NOT NULL,
			PRIMARY KEY (order_id, product_id)
		);
		CREATE TABLE IF NOT EXISTS outbox (
			id BIGSERIAL PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			type TEXT NOT NULL,
			payload JSONB NOT NULL,
			headers JSONB,
			traceparent TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			relay_id TEXT,
			lease_until TIMESTAMPTZ,
			retry_count INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox (status, id);
	`)
	return err
}

func (r *Repository) SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, payment_status, transaction_id, gateway_order_id, total_cents, shipping_address, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET status=$3, payment_status=$4, transaction_id=$5, gateway_order_id=$6, updated_at=$10`,
		o.ID, o.UserID, o.Status, o.PaymentStatus, o.TransactionID, o.GatewayOrderID, o.TotalCents, o.ShippingAddress, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, name, quantity, price_cents)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (order_id, product_id) DO UPDATE SET quantity=$4, price_cents=$5`,
			o.ID, item.ProductID, item.Name, item.Quantity, item.PriceCents)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if eventType != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
			VALUES ('order',$1,$2,$3,$4,'pending')`,
			o.ID, eventType, payload, traceparent)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, status, payment_status, transaction_id, gateway_order_id, total_cents, shipping_address, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.TransactionID, &o.GatewayOrderID, &o.TotalCents, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, name, quantity, price_cents FROM order_items WHERE order_id=$1`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.PriceCents); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

// ApplyPaymentState persists a verification transition and its event in one
// transaction. No event row is written when eventType is empty.
func (r *Repository) ApplyPaymentState(ctx context.Context, orderID string, status domain.Status, payment domain.PaymentStatus, transactionID, eventType string, payload []byte, traceparent string) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, payment_status=$3,
			transaction_id = CASE WHEN $4 <> '' THEN $4 ELSE transaction_id END,
			updated_at=$5
		WHERE id=$1`,
		orderID, status, payment, transactionID, time.Now().UTC())
	if err != nil {
		return domain.Order{}, err
	}
	if ct.RowsAffected() == 0 {
		return domain.Order{}, pgx.ErrNoRows
	}

	if eventType != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
			VALUES ('order',$1,$2,$3,$4,'pending')`,
			orderID, eventType, payload, traceparent)
		if err != nil {
			return domain.Order{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return r.Get(ctx, orderID)
}

func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, status, payment_status, transaction_id, gateway_order_id, total_cents, shipping_address, created_at, updated_at
		FROM orders WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, status, payment_status, transaction_id, gateway_order_id, total_cents, shipping_address, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.TransactionID, &o.GatewayOrderID, &o.TotalCents, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
