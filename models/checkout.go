package models

import "time"

// CheckoutSession locks in the shipping address and method and carries
// the authoritative totals. It is created once per checkout attempt and
// never mutated by the client; changing the shipping method requires a
// new session.
type CheckoutSession struct {
	SessionID       string          `json:"session_id"`
	UserID          string          `json:"user_id,omitempty"`
	GuestEmail      string          `json:"guest_email,omitempty"`
	Address         ShippingAddress `json:"address"`
	ShippingMethod  string          `json:"shipping_method"` // service_level token
	ShippingCarrier string          `json:"shipping_carrier"`
	ShippingService string          `json:"shipping_service"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Tax             float64         `json:"tax"`
	Total           float64         `json:"total"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InitializeSessionRequest is the payload for POST /checkout/session.
type InitializeSessionRequest struct {
	Address        ShippingAddress `json:"address" binding:"required"`
	GuestEmail     string          `json:"guest_email,omitempty"`
	ShippingMethod string          `json:"shipping_method" binding:"required"`
}

// CreatePaymentIntentRequest is the payload for POST /checkout/payment-intent.
type CreatePaymentIntentRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// CompleteCheckoutRequest is the payload for POST /checkout/complete.
// IdempotencyKey is generated client-side before the first attempt so a
// duplicate submission lands on the same key.
type CompleteCheckoutRequest struct {
	SessionID      string          `json:"session_id" binding:"required"`
	PaymentID      string          `json:"payment_id" binding:"required"`
	Address        ShippingAddress `json:"address" binding:"required"`
	GuestEmail     string          `json:"guest_email,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// CheckoutCompletedEvent is published after an order is created.
type CheckoutCompletedEvent struct {
	Event       string    `json:"event"` // "checkout.completed"
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id,omitempty"`
	GuestEmail  string    `json:"guest_email,omitempty"`
	Total       float64   `json:"total"`
	Timestamp   time.Time `json:"timestamp"`
}
