package cashfree

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func TestOrderStatusSendsCredentialHeaders(t *testing.T) {
	var gotID, gotSecret, gotVersion, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("x-client-id")
		gotSecret = r.Header.Get("x-client-secret")
		gotVersion = r.Header.Get("x-api-version")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cf_order_id":"cf_987","order_id":"ord_1","order_status":"PAID"}`))
	}))
	defer srv.Close()

	c := New(slog.Default(), "id123", "secret456", srv.URL)
	st, err := c.OrderStatus(context.Background(), "cf_987")
	if err != nil {
		t.Fatalf("OrderStatus failed: %v", err)
	}
	if st.OrderStatus != "PAID" || st.TransactionID != "cf_987" {
		t.Fatalf("unexpected status %+v", st)
	}
	if gotID != "id123" || gotSecret != "secret456" || gotVersion != apiVersion {
		t.Fatalf("credential headers missing: id=%q secret=%q version=%q", gotID, gotSecret, gotVersion)
	}
	if gotPath != "/orders/cf_987" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestOrderStatusGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"order not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(slog.Default(), "id", "secret", srv.URL)
	if _, err := c.OrderStatus(context.Background(), "cf_missing"); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestConfigured(t *testing.T) {
	if New(slog.Default(), "", "", "").Configured() {
		t.Fatal("client without credentials reported configured")
	}
	if !New(slog.Default(), "id", "secret", "").Configured() {
		t.Fatal("client with credentials reported unconfigured")
	}
}

func TestCreateOrderAmountConversion(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = jsonDecode(r, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cf_order_id":"cf_1","payment_session_id":"sess_1"}`))
	}))
	defer srv.Close()

	c := New(slog.Default(), "id", "secret", srv.URL)
	sess, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		OrderID:     "ord_1",
		AmountCents: 2499900,
		CustomerID:  "u1",
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if sess.GatewayOrderID != "cf_1" || sess.PaymentSessionID != "sess_1" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if gotBody["order_amount"] != 24999.0 {
		t.Fatalf("order_amount = %v, want 24999", gotBody["order_amount"])
	}
	if gotBody["order_currency"] != "INR" {
		t.Fatalf("order_currency = %v", gotBody["order_currency"])
	}
}
