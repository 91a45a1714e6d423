package domain

type OrderCreated struct {
	OrderID    string `json:"orderId"`
	UserID     string `json:"userId"`
	TotalCents int64  `json:"totalCents"`
	Items      []Item `json:"items"`
}

type OrderPaymentCompleted struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
	TotalCents    int64  `json:"totalCents"`
}

type OrderPaymentFailed struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

type OrderCancelled struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}
