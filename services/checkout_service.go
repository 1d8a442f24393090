package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"checkout-service/kafka"
	"checkout-service/models"
	"checkout-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

// Identity describes who is checking out. CustomerID is empty for
// guests; CartID is the cart owner key and equals CustomerID for
// authenticated customers.
type Identity struct {
	CustomerID string
	CartID     string
}

func (i Identity) IsGuest() bool { return i.CustomerID == "" }

// CheckoutAPI is the backend contract the checkout flow drives. The
// sequence session-init, intent-creation, completion is strictly
// ordered; each call depends on the previous one's output.
type CheckoutAPI interface {
	InitializeSession(ctx context.Context, id Identity, req *models.InitializeSessionRequest) (*models.CheckoutSession, *ServiceError)
	CreatePaymentIntent(ctx context.Context, sessionID string) (string, *ServiceError)
	CompleteCheckout(ctx context.Context, id Identity, req *models.CompleteCheckoutRequest) (*models.Order, *ServiceError)
	GetOrder(ctx context.Context, orderNumber string) (*models.Order, *ServiceError)
}

type CheckoutService struct {
	cartRepo    repository.CartRepository
	sessionRepo repository.SessionRepository
	orderRepo   repository.OrderRepository
	addressRepo repository.AddressRepository
	resolver    RateResolver
	processor   PaymentProcessor
	producer    kafka.ProducerAPI
	taxRate     float64
	logger      *zap.Logger
}

func NewCheckoutService(
	cartRepo repository.CartRepository,
	sessionRepo repository.SessionRepository,
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	resolver RateResolver,
	processor PaymentProcessor,
	producer kafka.ProducerAPI,
	taxRate float64,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:    cartRepo,
		sessionRepo: sessionRepo,
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		resolver:    resolver,
		processor:   processor,
		producer:    producer,
		taxRate:     taxRate,
		logger:      logger,
	}
}

// InitializeSession locks in the shipping address and method and
// computes the authoritative totals. The shipping cost is recomputed
// from the service_level token rather than trusted from the client.
func (s *CheckoutService) InitializeSession(ctx context.Context, id Identity, req *models.InitializeSessionRequest) (*models.CheckoutSession, *ServiceError) {
	req.Address.Normalize()

	if id.IsGuest() && req.GuestEmail == "" {
		return nil, &ServiceError{StatusCode: 400, Message: "Email is required for guest checkout"}
	}

	cart, err := s.cartRepo.GetCart(ctx, id.CartID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	if cart.IsEmpty() {
		return nil, &ServiceError{StatusCode: 400, Message: "Your cart is empty"}
	}

	rate, ok := s.lookupShippingRate(ctx, req.Address, req.ShippingMethod)
	if !ok {
		return nil, &ServiceError{StatusCode: 400, Message: "Unknown shipping method: " + req.ShippingMethod}
	}

	subtotal := roundCents(cart.Subtotal())
	shipping := roundCents(rate.Amount)
	tax := roundCents(s.taxRate * (subtotal + shipping))
	total := roundCents(subtotal + shipping + tax)

	session := &models.CheckoutSession{
		SessionID:       "cs_" + uuid.NewString(),
		UserID:          id.CustomerID,
		GuestEmail:      req.GuestEmail,
		Address:         req.Address,
		ShippingMethod:  rate.ServiceLevel,
		ShippingCarrier: rate.Carrier,
		ShippingService: rate.Service,
		Subtotal:        subtotal,
		Shipping:        shipping,
		Tax:             tax,
		Total:           total,
		CreatedAt:       time.Now(),
	}

	if err := s.sessionRepo.SaveSession(ctx, session); err != nil {
		s.logger.Error("Failed to save checkout session", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to initialize checkout session"}
	}

	s.logger.Info("Checkout session initialized",
		zap.String("session_id", session.SessionID),
		zap.String("shipping_method", session.ShippingMethod),
		zap.Float64("total", session.Total),
	)
	return session, nil
}

// lookupShippingRate finds the rate for a service_level token, checking
// live rates first and the fallback table second. A fallback token is
// expected whenever the customer was quoted estimated rates.
func (s *CheckoutService) lookupShippingRate(ctx context.Context, address models.ShippingAddress, serviceLevel string) (models.ShippingRate, bool) {
	rates, _ := s.resolver.Resolve(ctx, address)
	for _, r := range rates {
		if r.ServiceLevel == serviceLevel {
			return r, true
		}
	}
	return FallbackRateByServiceLevel(serviceLevel)
}

// CreatePaymentIntent creates a processor intent sized to the session's
// total and records the intent id on the session.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, sessionID string) (string, *ServiceError) {
	session, err := s.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to load checkout session", zap.Error(err))
		return "", &ServiceError{StatusCode: 500, Message: "Failed to load checkout session"}
	}
	if session == nil {
		return "", &ServiceError{StatusCode: 404, Message: "Checkout session expired"}
	}

	clientSecret, intentID, err := s.processor.CreatePaymentIntent(ctx, dollarsToCents(session.Total), "usd")
	if err != nil {
		s.logger.Error("Failed to create payment intent",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return "", &ServiceError{StatusCode: 502, Message: "Failed to create payment intent: " + err.Error()}
	}

	session.PaymentIntentID = intentID
	if err := s.sessionRepo.SaveSession(ctx, session); err != nil {
		s.logger.Warn("Failed to record intent on session", zap.Error(err))
	}

	return clientSecret, nil
}

// CompleteCheckout finalizes the order after a successful payment
// confirmation. It runs at most once per idempotency key; a duplicate
// call returns the order the first call created.
func (s *CheckoutService) CompleteCheckout(ctx context.Context, id Identity, req *models.CompleteCheckoutRequest) (*models.Order, *ServiceError) {
	req.Address.Normalize()

	if id.IsGuest() && req.GuestEmail == "" {
		return nil, &ServiceError{StatusCode: 400, Message: "Email is required for guest checkout"}
	}

	key := req.IdempotencyKey
	if key == "" {
		// A retry without a client token still lands on the same key.
		key = req.SessionID + ":" + req.PaymentID
	}

	claimed, existingOrderNumber, err := s.sessionRepo.ClaimIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Error("Idempotency claim failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to finalize checkout"}
	}
	if !claimed {
		if existingOrderNumber != "" {
			return s.GetOrder(ctx, existingOrderNumber)
		}
		return nil, &ServiceError{StatusCode: 409, Message: "Checkout is already being finalized"}
	}

	session, err := s.sessionRepo.GetSession(ctx, req.SessionID)
	if err != nil || session == nil {
		if err != nil {
			s.logger.Error("Failed to load checkout session", zap.Error(err))
		}
		s.releaseClaim(ctx, key)
		return nil, &ServiceError{StatusCode: 404, Message: "Checkout session expired"}
	}

	cart, err := s.cartRepo.GetCart(ctx, id.CartID)
	if err != nil {
		s.logger.Warn("Failed to load cart for order snapshot", zap.Error(err))
	}

	seq, err := s.sessionRepo.NextOrderSequence(ctx)
	if err != nil {
		s.logger.Error("Failed to allocate order number", zap.Error(err))
		s.releaseClaim(ctx, key)
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}

	order := &models.Order{
		OrderNumber:       fmt.Sprintf("ORD-%d", seq),
		UserID:            id.CustomerID,
		GuestEmail:        req.GuestEmail,
		SessionID:         session.SessionID,
		PaymentID:         req.PaymentID,
		Subtotal:          session.Subtotal,
		Shipping:          session.Shipping,
		Tax:               session.Tax,
		Total:             session.Total,
		Status:            models.OrderStatusPaid,
		PaymentStatus:     models.PaymentStatusPaid,
		FulfillmentStatus: models.FulfillmentUnshipped,
		ShipFirstName:     req.Address.FirstName,
		ShipLastName:      req.Address.LastName,
		ShipAddress1:      req.Address.Address1,
		ShipAddress2:      req.Address.Address2,
		ShipCity:          req.Address.City,
		ShipState:         req.Address.State,
		ShipZipCode:       req.Address.ZipCode,
		ShipCountry:       req.Address.Country,
	}
	if cart != nil {
		for _, item := range cart.Items {
			order.OrderItems = append(order.OrderItems, models.OrderItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price,
				Quantity:  item.Quantity,
			})
		}
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to create order after successful payment",
			zap.String("session_id", req.SessionID),
			zap.String("payment_id", req.PaymentID),
			zap.Error(err),
		)
		s.releaseClaim(ctx, key)
		return nil, &ServiceError{
			StatusCode: 500,
			Message:    "Your payment was received but the order could not be created. Please contact support before retrying.",
		}
	}

	if err := s.sessionRepo.SetIdempotencyResult(ctx, key, order.OrderNumber); err != nil {
		s.logger.Warn("Failed to record idempotency result", zap.Error(err))
	}

	// Best-effort side effects below. None of them may fail the
	// checkout: the order already exists.
	if !id.IsGuest() {
		s.syncAddressBook(ctx, id.CustomerID, req.Address)
	}

	if err := s.cartRepo.DeleteCart(ctx, id.CartID); err != nil {
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}

	if s.producer != nil {
		event := models.CheckoutCompletedEvent{
			Event:       "checkout.completed",
			OrderNumber: order.OrderNumber,
			UserID:      id.CustomerID,
			GuestEmail:  req.GuestEmail,
			Total:       order.Total,
			Timestamp:   time.Now(),
		}
		if err := s.producer.SendCheckoutCompleted(ctx, event); err != nil {
			s.logger.Warn("Failed to publish checkout.completed", zap.Error(err))
		}
	}

	s.logger.Info("Checkout completed",
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Total),
	)
	return order, nil
}

// releaseClaim frees an idempotency claim whose completion failed, so
// the customer can retry the same attempt instead of hitting the
// in-flight conflict until the key expires.
func (s *CheckoutService) releaseClaim(ctx context.Context, key string) {
	if err := s.sessionRepo.ReleaseIdempotencyKey(ctx, key); err != nil {
		s.logger.Warn("Failed to release idempotency claim", zap.String("key", key), zap.Error(err))
	}
}

// GetOrder retrieves an order for the success page.
func (s *CheckoutService) GetOrder(ctx context.Context, orderNumber string) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}
	return order, nil
}

// syncAddressBook saves the shipping address to the customer's address
// book unless an entry with the same street, city and zip exists. The
// first saved address becomes the default. Errors are logged and
// discarded here; address sync must never fail a checkout.
func (s *CheckoutService) syncAddressBook(ctx context.Context, customerID string, addr models.ShippingAddress) {
	existing, err := s.addressRepo.FindByUserID(ctx, customerID)
	if err != nil {
		s.logger.Warn("Address book lookup failed", zap.Error(err))
		return
	}
	for _, a := range existing {
		if a.Matches(addr) {
			return
		}
	}

	entry := &models.Address{
		UserID:    customerID,
		FirstName: addr.FirstName,
		LastName:  addr.LastName,
		Phone:     addr.Phone,
		Address1:  addr.Address1,
		Address2:  addr.Address2,
		City:      addr.City,
		State:     addr.State,
		ZipCode:   addr.ZipCode,
		Country:   addr.Country,
		IsDefault: len(existing) == 0,
	}
	if err := s.addressRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("Address book save failed", zap.Error(err))
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func dollarsToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}
