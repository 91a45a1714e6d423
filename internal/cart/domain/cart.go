package domain

import "time"

type Cart struct {
	ID        string `json:"id"`
	Items     []Item `json:"items"`
	SubtotalC int64  `json:"subtotalCents"`
}

type Item struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int    `json:"quantity"`
}

type WishlistEntry struct {
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}
