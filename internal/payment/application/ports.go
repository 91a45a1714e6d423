package application

import (
	"context"

	orderdomain "github.com/chronoshop/storefront/internal/order/domain"
	"github.com/chronoshop/storefront/internal/payment/domain"
)

type OrderStore interface {
	Get(ctx context.Context, id string) (orderdomain.Order, error)
	// ApplyPaymentState persists the new order state and, when eventType is
	// non-empty, appends an outbox event in the same transaction.
	ApplyPaymentState(ctx context.Context, orderID string, status orderdomain.Status, payment orderdomain.PaymentStatus, transactionID, eventType string, payload []byte, traceparent string) (orderdomain.Order, error)
}

type Gateway interface {
	// Configured reports whether API credentials are present.
	Configured() bool
	OrderStatus(ctx context.Context, gatewayOrderID string) (domain.GatewayStatus, error)
}
