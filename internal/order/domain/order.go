package domain

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

type Order struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	TransactionID   string        `json:"paymentTransactionId,omitempty"`
	GatewayOrderID  string        `json:"cfOrderId,omitempty"`
	TotalCents      int64         `json:"totalCents"`
	ShippingAddress string        `json:"shippingAddress"`
	Items           []Item        `json:"items"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type Item struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
}

func New(id, userID, shippingAddress string, items []Item) Order {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.PriceCents
	}
	now := time.Now().UTC()
	return Order{
		ID:              id,
		UserID:          userID,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		TotalCents:      total,
		ShippingAddress: shippingAddress,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Settled reports whether payment has been verified and the order confirmed,
// the state in which verification short-circuits.
func (o Order) Settled() bool {
	return o.PaymentStatus == PaymentCompleted && o.Status == StatusConfirmed
}
