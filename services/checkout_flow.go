package services

import (
	"context"

	"checkout-service/models"
	"checkout-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoticeLevel classifies user-visible notifications.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
	// NoticeCritical is reserved for the payment-captured-but-no-order
	// case, which needs stronger wording than a generic failure.
	NoticeCritical
)

// Notifier surfaces transient, non-blocking notifications to the user.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// CustomerSession exposes the identity driving the checkout. Profile
// returns nil for guests.
type CustomerSession interface {
	CustomerID() string
	CartID() string
	Profile() *models.ShippingAddress
}

// Step is the checkout flow's current state. The three states form a
// closed set; PaymentStep cannot be constructed without a client
// secret, so a broken payment form is unrepresentable.
type Step interface {
	StepName() string
}

type ShippingStep struct{}

func (ShippingStep) StepName() string { return "shipping" }

type ShippingMethodStep struct {
	Rates          []models.ShippingRate
	Source         models.RateSource
	SelectedRateID string
}

func (*ShippingMethodStep) StepName() string { return "shipping_method" }

// Selected returns the currently selected rate, if any. Selection is
// exclusive; SelectedRateID points at exactly one entry.
func (s *ShippingMethodStep) Selected() (models.ShippingRate, bool) {
	for _, r := range s.Rates {
		if r.RateID == s.SelectedRateID {
			return r, true
		}
	}
	return models.ShippingRate{}, false
}

type PaymentStep struct {
	Session      *models.CheckoutSession
	ClientSecret string

	// prior holds the shipping-method state so Back can restore the
	// rate list and selection without re-fetching.
	prior *ShippingMethodStep
	// confirmed is set once the processor reports success. A retry
	// after a completion failure must not re-confirm a captured
	// intent; the processor would reject it.
	confirmed *PaymentResult
}

func (*PaymentStep) StepName() string { return "payment" }

func newPaymentStep(session *models.CheckoutSession, clientSecret string, prior *ShippingMethodStep) (*PaymentStep, bool) {
	if clientSecret == "" || session == nil {
		return nil, false
	}
	return &PaymentStep{Session: session, ClientSecret: clientSecret, prior: prior}, true
}

// OrderSummary is the totals projection shown at every step. Before a
// session exists the values are locally summed; afterwards they are the
// session's authoritative numbers.
type OrderSummary struct {
	Subtotal  float64 `json:"subtotal"`
	Shipping  float64 `json:"shipping"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	Estimated bool    `json:"estimated"`
}

// CheckoutFlow sequences the shipping, shipping-method and payment
// steps. All collaborators are injected; the flow holds no global
// state. It is driven from a single goroutine, matching the UI event
// loop it models, so a plain processing flag is the double-submit
// guard.
type CheckoutFlow struct {
	api       CheckoutAPI
	resolver  RateResolver
	processor PaymentProcessor
	cartRepo  repository.CartRepository
	customer  CustomerSession
	notifier  Notifier
	navigate  func(path string)
	logger    *zap.Logger

	form           models.ShippingAddress
	step           Step
	processing     bool
	completed      bool
	idempotencyKey string
}

func NewCheckoutFlow(
	api CheckoutAPI,
	resolver RateResolver,
	processor PaymentProcessor,
	cartRepo repository.CartRepository,
	customer CustomerSession,
	notifier Notifier,
	navigate func(path string),
	logger *zap.Logger,
) *CheckoutFlow {
	f := &CheckoutFlow{
		api:       api,
		resolver:  resolver,
		processor: processor,
		cartRepo:  cartRepo,
		customer:  customer,
		notifier:  notifier,
		navigate:  navigate,
		logger:    logger,
		step:      ShippingStep{},
	}
	if profile := customer.Profile(); profile != nil {
		f.form = *profile
	}
	f.form.Normalize()
	return f
}

func (f *CheckoutFlow) Step() Step { return f.step }

// Form exposes the mutable shipping form. Field edits land here; the
// form survives backward navigation.
func (f *CheckoutFlow) Form() *models.ShippingAddress { return &f.form }

func (f *CheckoutFlow) Completed() bool { return f.completed }

func (f *CheckoutFlow) identity() Identity {
	return Identity{CustomerID: f.customer.CustomerID(), CartID: f.customer.CartID()}
}

func (f *CheckoutFlow) isGuest() bool { return f.customer.CustomerID() == "" }

func (f *CheckoutFlow) guestEmail() string {
	if f.isGuest() {
		return f.form.Email
	}
	return ""
}

// EnsureCart verifies the cart is non-empty. Called at mount and on
// every cart change; an empty cart redirects to the product listing.
func (f *CheckoutFlow) EnsureCart(ctx context.Context) bool {
	cart, err := f.cartRepo.GetCart(ctx, f.customer.CartID())
	if err != nil {
		f.logger.Error("Failed to load cart", zap.Error(err))
		f.notifier.Notify(NoticeError, "Unable to load your cart")
		return false
	}
	if cart.IsEmpty() {
		f.notifier.Notify(NoticeError, "Your cart is empty")
		f.navigate("/products")
		return false
	}
	return true
}

// SubmitShipping advances shipping -> shipping_method. The resolver
// never blocks the transition: fallback rates carry the user forward
// with a notification instead of an error page.
func (f *CheckoutFlow) SubmitShipping(ctx context.Context) error {
	if f.processing {
		return nil
	}
	f.processing = true
	defer func() { f.processing = false }()

	if !f.EnsureCart(ctx) {
		return nil
	}
	if msg, ok := f.validateForm(); !ok {
		f.notifier.Notify(NoticeError, msg)
		return nil
	}

	rates, source := f.resolver.Resolve(ctx, f.form)
	switch source {
	case models.RateSourceFallbackEmpty:
		f.notifier.Notify(NoticeWarning, "Using estimated shipping rates")
	case models.RateSourceFallbackError:
		f.notifier.Notify(NoticeWarning, "Unable to fetch real-time rates, using estimated shipping rates")
	}

	step := &ShippingMethodStep{Rates: rates, Source: source}
	if len(rates) > 0 {
		step.SelectedRateID = rates[0].RateID
	}
	f.step = step
	return nil
}

func (f *CheckoutFlow) validateForm() (string, bool) {
	switch {
	case f.form.FirstName == "" || f.form.LastName == "":
		return "Please enter your full name", false
	case f.form.Address1 == "":
		return "Please enter your street address", false
	case f.form.City == "" || f.form.State == "" || f.form.ZipCode == "":
		return "Please complete your city, state and ZIP code", false
	case f.isGuest() && f.form.Email == "":
		return "Please enter your email address", false
	}
	return "", true
}

// SelectRate changes the exclusive rate selection on the
// shipping_method step.
func (f *CheckoutFlow) SelectRate(rateID string) {
	step, ok := f.step.(*ShippingMethodStep)
	if !ok {
		return
	}
	for _, r := range step.Rates {
		if r.RateID == rateID {
			step.SelectedRateID = rateID
			return
		}
	}
	f.notifier.Notify(NoticeError, "Unknown shipping option")
}

// ContinueToPayment advances shipping_method -> payment: session init
// first, then intent creation, strictly in that order. Either failure
// keeps the user here with the backend's message when it has one.
func (f *CheckoutFlow) ContinueToPayment(ctx context.Context) error {
	if f.processing {
		return nil
	}
	f.processing = true
	defer func() { f.processing = false }()

	step, ok := f.step.(*ShippingMethodStep)
	if !ok {
		return nil
	}
	rate, selected := step.Selected()
	if !selected {
		f.notifier.Notify(NoticeError, "Please select a shipping method")
		return nil
	}

	session, svcErr := f.api.InitializeSession(ctx, f.identity(), &models.InitializeSessionRequest{
		Address:        f.form,
		GuestEmail:     f.guestEmail(),
		ShippingMethod: rate.ServiceLevel,
	})
	if svcErr != nil {
		f.notifyBackendError(svcErr, "Unable to start checkout, please try again")
		return nil
	}

	clientSecret, svcErr := f.api.CreatePaymentIntent(ctx, session.SessionID)
	if svcErr != nil {
		f.notifyBackendError(svcErr, "Unable to set up payment, please try again")
		return nil
	}

	payment, ok := newPaymentStep(session, clientSecret, step)
	if !ok {
		// A missing secret must never reach the payment form.
		f.logger.Error("Empty client secret from payment intent",
			zap.String("session_id", session.SessionID),
		)
		f.notifier.Notify(NoticeError, "Unable to set up payment, please try again")
		return nil
	}
	f.idempotencyKey = uuid.NewString()
	f.step = payment
	return nil
}

// Back moves one step backward. Form values and fetched rates are kept;
// moving forward again re-runs the re-entered step's side effects, so a
// stale session or intent is never reused.
func (f *CheckoutFlow) Back() {
	switch step := f.step.(type) {
	case *PaymentStep:
		f.step = step.prior
		f.idempotencyKey = ""
	case *ShippingMethodStep:
		f.step = ShippingStep{}
	}
}

// ConfirmPayment runs the payment confirmation handshake:
// processor confirm, then checkout completion exactly once, then cart
// clear and navigation. The processing flag blocks a second submission
// while the first is in flight.
func (f *CheckoutFlow) ConfirmPayment(ctx context.Context) error {
	if f.processing || f.completed {
		return nil
	}
	f.processing = true
	defer func() { f.processing = false }()

	step, ok := f.step.(*PaymentStep)
	if !ok {
		return nil
	}

	if step.confirmed == nil {
		result, err := f.processor.ConfirmPayment(ctx, step.ClientSecret)
		if err != nil {
			// No backend call has happened; the same secret is safe to
			// retry.
			f.notifier.Notify(NoticeError, err.Error())
			return nil
		}
		if !result.Succeeded() {
			f.notifier.Notify(NoticeError, "Payment was not completed, please try again")
			return nil
		}
		step.confirmed = &result
	}

	order, svcErr := f.api.CompleteCheckout(ctx, f.identity(), &models.CompleteCheckoutRequest{
		SessionID:      step.Session.SessionID,
		PaymentID:      step.confirmed.IntentID,
		Address:        f.form,
		GuestEmail:     f.guestEmail(),
		IdempotencyKey: f.idempotencyKey,
	})
	if svcErr != nil {
		// The payment went through but no order exists. This must not
		// read like an ordinary payment failure.
		f.logger.Error("Checkout completion failed after successful payment",
			zap.String("session_id", step.Session.SessionID),
			zap.String("payment_id", step.confirmed.IntentID),
			zap.String("message", svcErr.Message),
		)
		f.notifier.Notify(NoticeCritical,
			"Your payment was processed but we could not finalize your order. Please contact support before paying again.")
		return nil
	}

	f.completed = true
	f.navigate("/checkout/success?order_number=" + order.OrderNumber)
	return nil
}

// Summary projects subtotal/shipping/tax/total from the most
// authoritative source for the current step. A selected rate is never
// silently dropped from the total.
func (f *CheckoutFlow) Summary(ctx context.Context) OrderSummary {
	if payment, ok := f.step.(*PaymentStep); ok {
		s := payment.Session
		return OrderSummary{Subtotal: s.Subtotal, Shipping: s.Shipping, Tax: s.Tax, Total: s.Total}
	}

	var summary OrderSummary
	cart, err := f.cartRepo.GetCart(ctx, f.customer.CartID())
	if err == nil && cart != nil {
		summary.Subtotal = cart.Subtotal()
	}
	if step, ok := f.step.(*ShippingMethodStep); ok {
		if rate, selected := step.Selected(); selected {
			summary.Shipping = rate.Amount
			summary.Estimated = rate.IsFallback
		}
	}
	summary.Total = summary.Subtotal + summary.Shipping + summary.Tax
	return summary
}

func (f *CheckoutFlow) notifyBackendError(svcErr *ServiceError, fallback string) {
	msg := svcErr.Message
	if msg == "" {
		msg = fallback
	}
	f.notifier.Notify(NoticeError, msg)
}
