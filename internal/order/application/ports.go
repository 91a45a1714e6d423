package application

import (
	"context"

	"github.com/chronoshop/storefront/internal/order/domain"
)

type OrderRepository interface {
	SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error
	Get(ctx context.Context, id string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	List(ctx context.Context, limit, offset int) ([]domain.Order, error)
}

// CheckoutGateway opens a payment session with the gateway at checkout.
type CheckoutGateway interface {
	Configured() bool
	CreateSession(ctx context.Context, orderID string, amountCents int64, customerID, email, phone string) (gatewayOrderID, paymentSessionID string, err error)
}
