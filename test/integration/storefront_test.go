package integration

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	cartdomain "github.com/chronoshop/storefront/internal/cart/domain"
	cartredis "github.com/chronoshop/storefront/internal/cart/redis"
	"github.com/chronoshop/storefront/internal/order/domain"
	orderpg "github.com/chronoshop/storefront/internal/order/infrastructure/postgres"
)

// End to end persistence checks against real Postgres and Redis. Requires a
// local Docker daemon; run with -short to skip.
func TestOrderLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	env, err := Setup(ctx)
	if err != nil {
		t.Fatalf("container setup: %v", err)
	}
	defer env.Teardown(ctx)

	pool, err := pgxpool.New(ctx, env.PGURL)
	if err != nil {
		t.Fatalf("pg connect: %v", err)
	}
	defer pool.Close()

	log := slog.Default()
	repo := orderpg.NewRepository(log, pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	order := domain.New("ord_it_1", "user-1", "221B Baker Street", []domain.Item{
		{ProductID: "p1", Name: "Chrono Diver", Quantity: 2, PriceCents: 1299900},
	})
	if err := repo.SaveWithOutbox(ctx, order, "order.created", []byte(`{"orderId":"ord_it_1"}`), ""); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(ctx, "ord_it_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalCents != 2599800 {
		t.Fatalf("total = %d, want 2599800", got.TotalCents)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("items round trip broken: %+v", got.Items)
	}

	updated, err := repo.ApplyPaymentState(ctx, "ord_it_1",
		domain.StatusConfirmed, domain.PaymentCompleted,
		"txn_42", "order.payment_completed", []byte(`{"orderId":"ord_it_1"}`), "")
	if err != nil {
		t.Fatalf("apply payment state: %v", err)
	}
	if !updated.Settled() {
		t.Fatalf("order not settled after completion: %+v", updated)
	}
	if updated.TransactionID != "txn_42" {
		t.Fatalf("transaction id = %q, want txn_42", updated.TransactionID)
	}

	// Both lifecycle events must be waiting in the outbox.
	store := orderpg.NewOutboxStore(log, pool)
	batch, err := store.LockBatch(ctx, "it-relay", 10, time.Minute)
	if err != nil {
		t.Fatalf("lock batch: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("outbox batch = %d events, want 2", len(batch))
	}
	if err := store.MarkSent(ctx, []int64{batch[0].ID, batch[1].ID}); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	again, err := store.LockBatch(ctx, "it-relay", 10, time.Minute)
	if err != nil {
		t.Fatalf("second lock batch: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("sent events locked again: %d", len(again))
	}
}

func TestCartRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	env, err := Setup(ctx)
	if err != nil {
		t.Fatalf("container setup: %v", err)
	}
	defer env.Teardown(ctx)

	opts, err := redis.ParseURL(env.RedisAddr)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	carts := cartredis.NewStore(rdb)
	cart, err := carts.SetItem(ctx, "cart-1", cartdomain.Item{
		ProductID: "p1", Name: "Chrono Diver", PriceCents: 1299900, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("set item: %v", err)
	}
	if cart.SubtotalC != 1299900 {
		t.Fatalf("subtotal = %d, want 1299900", cart.SubtotalC)
	}

	cart, err = carts.SetItem(ctx, "cart-1", cartdomain.Item{ProductID: "p1", Quantity: 0})
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(cart.Items) != 0 || cart.SubtotalC != 0 {
		t.Fatalf("cart not emptied: %+v", cart)
	}

	got, err := carts.Get(ctx, "cart-unknown")
	if err != nil {
		t.Fatalf("get unknown cart: %v", err)
	}
	if len(got.Items) != 0 {
		t.Fatalf("unknown cart should be empty, got %+v", got)
	}
}
