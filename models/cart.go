package models

import "time"

type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"` // unit price in dollars
	Quantity  int     `json:"quantity"`
}

type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Subtotal sums item prices before a checkout session exists. Once a
// session is initialized its totals are authoritative instead.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, item := range c.Items {
		sum += item.Price * float64(item.Quantity)
	}
	return sum
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
