package domain

import (
	orderdomain "github.com/chronoshop/storefront/internal/order/domain"
)

// Gateway order statuses as Cashfree reports them in order_status.
const (
	GatewayPaid        = "PAID"
	GatewayActive      = "ACTIVE"
	GatewayExpired     = "EXPIRED"
	GatewayTerminated  = "TERMINATED"
	GatewayUserDropped = "USER_DROPPED"
)

// GatewayStatus is the order-status payload returned by the gateway.
type GatewayStatus struct {
	OrderStatus   string
	TransactionID string
}

// Transition is the local order state derived from a gateway status.
type Transition struct {
	Status        orderdomain.Status
	PaymentStatus orderdomain.PaymentStatus
	Terminal      bool
}

// Map translates the gateway's status vocabulary into a local transition.
// Unknown statuses are treated as failed.
func Map(gatewayStatus string) Transition {
	switch gatewayStatus {
	case GatewayPaid:
		return Transition{Status: orderdomain.StatusConfirmed, PaymentStatus: orderdomain.PaymentCompleted, Terminal: true}
	case GatewayActive:
		return Transition{Status: orderdomain.StatusPending, PaymentStatus: orderdomain.PaymentPending}
	case GatewayExpired, GatewayTerminated, GatewayUserDropped:
		return Transition{Status: orderdomain.StatusCancelled, PaymentStatus: orderdomain.PaymentCancelled, Terminal: true}
	default:
		return Transition{Status: orderdomain.StatusPending, PaymentStatus: orderdomain.PaymentFailed, Terminal: true}
	}
}

// Result is the outcome reported to the storefront client.
type Result struct {
	Verified bool                      `json:"verified"`
	Status   orderdomain.PaymentStatus `json:"status"`
	Order    *orderdomain.Order        `json:"order,omitempty"`
	Message  string                    `json:"message,omitempty"`
}
