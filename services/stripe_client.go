package services

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
)

// PaymentResult reports the processor's view of a confirmation attempt.
type PaymentResult struct {
	IntentID string
	Status   string
}

// Succeeded reports whether the intent reached its terminal success
// state. Anything else (requires_action, processing, canceled) is not a
// go-ahead for checkout completion.
func (r PaymentResult) Succeeded() bool {
	return r.Status == string(stripe.PaymentIntentStatusSucceeded)
}

// ProcessorError is a user-correctable payment failure, e.g. a declined
// card. The message is safe to show to the customer.
type ProcessorError struct {
	Message string
}

func (e *ProcessorError) Error() string { return e.Message }

// PaymentProcessor is the payment-side contract the checkout flow
// depends on.
type PaymentProcessor interface {
	PublishableKey() string
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (clientSecret string, intentID string, err error)
	ConfirmPayment(ctx context.Context, clientSecret string) (PaymentResult, error)
}

// StripeService implements PaymentProcessor with the Stripe API.
type StripeService struct {
	publishableKey string
}

func NewStripeService(secretKey, publishableKey string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{publishableKey: publishableKey}
}

func (s *StripeService) PublishableKey() string {
	return s.publishableKey
}

func (s *StripeService) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", "", translateStripeErr(err)
	}
	return pi.ClientSecret, pi.ID, nil
}

// ConfirmPayment confirms the intent behind the client secret. The
// payment method was already attached by the storefront's payment
// element; confirmation here stays in-page unless the processor
// mandates a redirect.
func (s *StripeService) ConfirmPayment(ctx context.Context, clientSecret string) (PaymentResult, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := paymentintent.Confirm(IntentIDFromClientSecret(clientSecret), params)
	if err != nil {
		return PaymentResult{}, translateStripeErr(err)
	}
	return PaymentResult{IntentID: pi.ID, Status: string(pi.Status)}, nil
}

// IntentIDFromClientSecret extracts the intent id from a client secret
// of the form "pi_xxx_secret_yyy".
func IntentIDFromClientSecret(clientSecret string) string {
	if i := strings.Index(clientSecret, "_secret"); i > 0 {
		return clientSecret[:i]
	}
	return clientSecret
}

func translateStripeErr(err error) error {
	if se, ok := err.(*stripe.Error); ok && se.Msg != "" {
		return &ProcessorError{Message: se.Msg}
	}
	return err
}
