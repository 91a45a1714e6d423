// Package cashfree wraps the Cashfree PG REST API: order creation at
// checkout and the order-status endpoint the verification flow polls.
package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	paymentdomain "github.com/chronoshop/storefront/internal/payment/domain"
)

const apiVersion = "2023-08-01"

type Client struct {
	log          *slog.Logger
	clientID     string
	clientSecret string
	baseURL      string
	http         *http.Client
}

// New builds a client. Empty credentials yield an unconfigured client;
// callers check Configured before use.
func New(log *slog.Logger, clientID, clientSecret, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.cashfree.com/pg"
	}
	return &Client{
		log:          log,
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

type statusResponse struct {
	CFOrderID   string `json:"cf_order_id"`
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"`
}

// OrderStatus fetches the gateway's view of a checkout session.
func (c *Client) OrderStatus(ctx context.Context, gatewayOrderID string) (paymentdomain.GatewayStatus, error) {
	var out statusResponse
	if err := c.do(ctx, http.MethodGet, "/orders/"+gatewayOrderID, nil, &out); err != nil {
		return paymentdomain.GatewayStatus{}, err
	}
	return paymentdomain.GatewayStatus{
		OrderStatus:   out.OrderStatus,
		TransactionID: out.CFOrderID,
	}, nil
}

type CreateOrderRequest struct {
	OrderID       string
	AmountCents   int64
	Currency      string
	CustomerID    string
	CustomerPhone string
	CustomerEmail string
}

type Session struct {
	GatewayOrderID   string
	PaymentSessionID string
}

// CreateOrder opens a checkout session with the gateway.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (Session, error) {
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	body := map[string]any{
		"order_id":       req.OrderID,
		"order_amount":   float64(req.AmountCents) / 100,
		"order_currency": currency,
		"customer_details": map[string]string{
			"customer_id":    req.CustomerID,
			"customer_phone": req.CustomerPhone,
			"customer_email": req.CustomerEmail,
		},
	}
	var out struct {
		CFOrderID        string `json:"cf_order_id"`
		PaymentSessionID string `json:"payment_session_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		return Session{}, err
	}
	return Session{GatewayOrderID: out.CFOrderID, PaymentSessionID: out.PaymentSessionID}, nil
}

// CreateSession adapts CreateOrder to the checkout port.
func (c *Client) CreateSession(ctx context.Context, orderID string, amountCents int64, customerID, email, phone string) (string, string, error) {
	sess, err := c.CreateOrder(ctx, CreateOrderRequest{
		OrderID:       orderID,
		AmountCents:   amountCents,
		CustomerID:    customerID,
		CustomerEmail: email,
		CustomerPhone: phone,
	})
	if err != nil {
		return "", "", err
	}
	return sess.GatewayOrderID, sess.PaymentSessionID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-client-secret", c.clientSecret)
	req.Header.Set("x-api-version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cashfree: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cashfree: status %d: %s", resp.StatusCode, raw)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
