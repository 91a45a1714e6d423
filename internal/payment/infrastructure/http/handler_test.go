package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	orderdomain "github.com/chronoshop/storefront/internal/order/domain"
	"github.com/chronoshop/storefront/internal/payment/application"
	"github.com/chronoshop/storefront/internal/payment/domain"
)

type fakeOrders struct {
	orders   map[string]orderdomain.Order
	writes   int
	applyErr error
}

func (f *fakeOrders) Get(ctx context.Context, id string) (orderdomain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return orderdomain.Order{}, errors.New("no rows")
	}
	return o, nil
}

func (f *fakeOrders) ApplyPaymentState(ctx context.Context, orderID string, status orderdomain.Status, payment orderdomain.PaymentStatus, transactionID, eventType string, payload []byte, traceparent string) (orderdomain.Order, error) {
	if f.applyErr != nil {
		return orderdomain.Order{}, f.applyErr
	}
	o := f.orders[orderID]
	o.Status = status
	o.PaymentStatus = payment
	o.TransactionID = transactionID
	f.orders[orderID] = o
	f.writes++
	return o, nil
}

type fakeGateway struct {
	status string
}

func (g *fakeGateway) Configured() bool { return true }

func (g *fakeGateway) OrderStatus(ctx context.Context, gatewayOrderID string) (domain.GatewayStatus, error) {
	return domain.GatewayStatus{OrderStatus: g.status, TransactionID: "txn_1"}, nil
}

type fakeDedup struct {
	seen     map[string]bool
	released []string
}

func newFakeDedup() *fakeDedup { return &fakeDedup{seen: map[string]bool{}} }

func (d *fakeDedup) WebhookKey(provider, eventID string) string {
	return provider + ":" + eventID
}

func (d *fakeDedup) Seen(ctx context.Context, key string) (bool, error) {
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

func (d *fakeDedup) Release(ctx context.Context, key string) error {
	delete(d.seen, key)
	d.released = append(d.released, key)
	return nil
}

func newWebhookHandler(orders *fakeOrders, dedup *fakeDedup) *Handler {
	svc := application.NewService(slog.Default(), orders, &fakeGateway{status: "PAID"})
	return NewHandler(slog.Default(), svc, application.NewPoller(svc), dedup)
}

func postWebhook(h *Handler, eventID string) *httptest.ResponseRecorder {
	body := `{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"ord_1","order_status":"PAID"}}}`
	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	r.Header.Set("x-webhook-id", eventID)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)
	return w
}

func TestWebhookReleasesClaimOnFailureSoRetrySucceeds(t *testing.T) {
	orders := &fakeOrders{
		orders: map[string]orderdomain.Order{
			"ord_1": {ID: "ord_1", Status: orderdomain.StatusPending, PaymentStatus: orderdomain.PaymentPending, GatewayOrderID: "cf_1"},
		},
		applyErr: errors.New("connection refused"),
	}
	dedup := newFakeDedup()
	h := newWebhookHandler(orders, dedup)

	w := postWebhook(h, "wh_1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("first delivery status = %d, want 500", w.Code)
	}
	if len(dedup.released) != 1 || dedup.released[0] != "cashfree:wh_1" {
		t.Fatalf("released = %v, want the failed delivery's key", dedup.released)
	}

	// The gateway redelivers with the same id once the store recovers.
	orders.applyErr = nil
	w = postWebhook(h, "wh_1")
	if w.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want 200", w.Code)
	}
	if orders.writes != 1 {
		t.Fatalf("writes = %d, want 1", orders.writes)
	}
	got := orders.orders["ord_1"]
	if !got.Settled() {
		t.Fatalf("order not settled after retry: %+v", got)
	}
}

func TestWebhookSkipsDuplicateDelivery(t *testing.T) {
	orders := &fakeOrders{
		orders: map[string]orderdomain.Order{
			"ord_1": {ID: "ord_1", Status: orderdomain.StatusPending, PaymentStatus: orderdomain.PaymentPending, GatewayOrderID: "cf_1"},
		},
	}
	dedup := newFakeDedup()
	h := newWebhookHandler(orders, dedup)

	if w := postWebhook(h, "wh_2"); w.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d, want 200", w.Code)
	}
	if w := postWebhook(h, "wh_2"); w.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want 200", w.Code)
	}
	if orders.writes != 1 {
		t.Fatalf("writes = %d, want 1 after duplicate", orders.writes)
	}
	if len(dedup.released) != 0 {
		t.Fatalf("released = %v, want none for successful deliveries", dedup.released)
	}
}
