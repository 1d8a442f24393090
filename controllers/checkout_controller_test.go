package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-service/controllers"
	"checkout-service/middleware"
	"checkout-service/models"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// ---- concrete mock implementing services.CheckoutAPI ----

type mockCheckout struct {
	session     *models.CheckoutSession
	sessionErr  *services.ServiceError
	secret      string
	intentErr   *services.ServiceError
	order       *models.Order
	completeErr *services.ServiceError
	orderErr    *services.ServiceError

	lastIdentity services.Identity
}

func (m *mockCheckout) InitializeSession(_ context.Context, id services.Identity, _ *models.InitializeSessionRequest) (*models.CheckoutSession, *services.ServiceError) {
	m.lastIdentity = id
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	return m.session, nil
}

func (m *mockCheckout) CreatePaymentIntent(_ context.Context, _ string) (string, *services.ServiceError) {
	if m.intentErr != nil {
		return "", m.intentErr
	}
	return m.secret, nil
}

func (m *mockCheckout) CompleteCheckout(_ context.Context, id services.Identity, _ *models.CompleteCheckoutRequest) (*models.Order, *services.ServiceError) {
	m.lastIdentity = id
	if m.completeErr != nil {
		return nil, m.completeErr
	}
	return m.order, nil
}

func (m *mockCheckout) GetOrder(_ context.Context, orderNumber string) (*models.Order, *services.ServiceError) {
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	return &models.Order{OrderNumber: orderNumber}, nil
}

// ---- stub resolver and processor ----

type stubResolver struct {
	rates  []models.ShippingRate
	source models.RateSource
}

func (s *stubResolver) Resolve(_ context.Context, _ models.ShippingAddress) ([]models.ShippingRate, models.RateSource) {
	return s.rates, s.source
}

type stubProcessor struct{}

func (stubProcessor) PublishableKey() string { return "pk_test_abc" }
func (stubProcessor) CreatePaymentIntent(_ context.Context, _ int64, _ string) (string, string, error) {
	return "", "", nil
}
func (stubProcessor) ConfirmPayment(_ context.Context, _ string) (services.PaymentResult, error) {
	return services.PaymentResult{}, nil
}

// ---- helpers ----

func setupRouter(checkout services.CheckoutAPI, resolver services.RateResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c := controllers.NewCheckoutController(checkout, resolver, stubProcessor{})

	r.GET("/checkout/config", c.GetConfig)
	r.POST("/checkout/rates", c.GetRates)

	authed := r.Group("/", middleware.Identity())
	authed.POST("/checkout/session", c.InitializeSession)
	authed.POST("/checkout/payment-intent", c.CreatePaymentIntent)
	authed.POST("/checkout/complete", c.CompleteCheckout)
	r.GET("/orders/:order_number", c.GetOrder)
	return r
}

func postJSON(r *gin.Engine, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func customerHeaders() map[string]string {
	return map[string]string{"X-User-ID": "u1"}
}

func ratesBody() models.ShippingRatesRequest {
	return models.ShippingRatesRequest{
		Address: models.ShippingAddress{
			FirstName: "Jamie", LastName: "Rivera",
			Address1: "500 Market St", City: "San Francisco",
			State: "CA", ZipCode: "94105", Country: "United States",
		},
	}
}

// ---- tests ----

func TestGetConfig_ReturnsPublishableKey(t *testing.T) {
	r := setupRouter(&mockCheckout{}, &stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/checkout/config", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "pk_test_abc", resp["publishable_key"])
}

func TestGetRates_LiveRates(t *testing.T) {
	resolver := &stubResolver{
		rates: []models.ShippingRate{
			{Carrier: "UPS", Service: "Ground", ServiceLevel: "ups_ground", Amount: 11.50, Currency: "USD", RateID: "rate_live_1"},
		},
		source: models.RateSourceLive,
	}
	r := setupRouter(&mockCheckout{}, resolver)

	w := postJSON(r, "/checkout/rates", ratesBody(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, false, resp["estimated"])
	rates, ok := resp["rates"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, rates, 1)
}

func TestGetRates_FallbackStillOK(t *testing.T) {
	resolver := &stubResolver{
		rates:  services.FallbackRates(),
		source: models.RateSourceFallbackError,
	}
	r := setupRouter(&mockCheckout{}, resolver)

	w := postJSON(r, "/checkout/rates", ratesBody(), nil)

	// Provider failure never surfaces as an HTTP error.
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, true, resp["estimated"])
}

func TestGetRates_BadJSON(t *testing.T) {
	r := setupRouter(&mockCheckout{}, &stubResolver{})

	req := httptest.NewRequest(http.MethodPost, "/checkout/rates", bytes.NewReader([]byte("not-json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitializeSession_Success(t *testing.T) {
	checkout := &mockCheckout{
		session: &models.CheckoutSession{
			SessionID: "cs_abc", Subtotal: 25.00, Shipping: 12.99, Tax: 2.28, Total: 40.27,
		},
	}
	r := setupRouter(checkout, &stubResolver{})

	body := models.InitializeSessionRequest{
		Address:        ratesBody().Address,
		ShippingMethod: "ups_ground",
	}
	w := postJSON(r, "/checkout/session", body, customerHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	var session models.CheckoutSession
	_ = json.Unmarshal(w.Body.Bytes(), &session)
	assert.Equal(t, "cs_abc", session.SessionID)
	assert.Equal(t, 40.27, session.Total)
	assert.Equal(t, "u1", checkout.lastIdentity.CustomerID)
}

func TestInitializeSession_MissingIdentity(t *testing.T) {
	r := setupRouter(&mockCheckout{}, &stubResolver{})

	body := models.InitializeSessionRequest{Address: ratesBody().Address, ShippingMethod: "ups_ground"}
	w := postJSON(r, "/checkout/session", body, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitializeSession_GuestCartHeader(t *testing.T) {
	checkout := &mockCheckout{session: &models.CheckoutSession{SessionID: "cs_guest"}}
	r := setupRouter(checkout, &stubResolver{})

	body := models.InitializeSessionRequest{
		Address:        ratesBody().Address,
		GuestEmail:     "guest@example.com",
		ShippingMethod: "ups_ground",
	}
	w := postJSON(r, "/checkout/session", body, map[string]string{"X-Cart-ID": "guest-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", checkout.lastIdentity.CustomerID)
	assert.Equal(t, "guest-1", checkout.lastIdentity.CartID)
}

func TestInitializeSession_ServiceError(t *testing.T) {
	checkout := &mockCheckout{
		sessionErr: &services.ServiceError{StatusCode: 400, Message: "Your cart is empty"},
	}
	r := setupRouter(checkout, &stubResolver{})

	body := models.InitializeSessionRequest{Address: ratesBody().Address, ShippingMethod: "ups_ground"}
	w := postJSON(r, "/checkout/session", body, customerHeaders())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "Your cart is empty", resp["error"])
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	checkout := &mockCheckout{secret: "pi_1_secret_abc"}
	r := setupRouter(checkout, &stubResolver{})

	w := postJSON(r, "/checkout/payment-intent", models.CreatePaymentIntentRequest{SessionID: "cs_abc"}, customerHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "pi_1_secret_abc", resp["client_secret"])
}

func TestCreatePaymentIntent_ExpiredSession(t *testing.T) {
	checkout := &mockCheckout{
		intentErr: &services.ServiceError{StatusCode: 404, Message: "Checkout session expired"},
	}
	r := setupRouter(checkout, &stubResolver{})

	w := postJSON(r, "/checkout/payment-intent", models.CreatePaymentIntentRequest{SessionID: "cs_gone"}, customerHeaders())

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompleteCheckout_Created(t *testing.T) {
	checkout := &mockCheckout{
		order: &models.Order{OrderNumber: "ORD-1001", Total: 40.27},
	}
	r := setupRouter(checkout, &stubResolver{})

	body := models.CompleteCheckoutRequest{
		SessionID: "cs_abc", PaymentID: "pi_1",
		Address: ratesBody().Address, IdempotencyKey: "idem-1",
	}
	w := postJSON(r, "/checkout/complete", body, customerHeaders())

	assert.Equal(t, http.StatusCreated, w.Code)
	var order models.Order
	_ = json.Unmarshal(w.Body.Bytes(), &order)
	assert.Equal(t, "ORD-1001", order.OrderNumber)
}

func TestCompleteCheckout_Conflict(t *testing.T) {
	checkout := &mockCheckout{
		completeErr: &services.ServiceError{StatusCode: 409, Message: "Checkout already in progress"},
	}
	r := setupRouter(checkout, &stubResolver{})

	body := models.CompleteCheckoutRequest{
		SessionID: "cs_abc", PaymentID: "pi_1",
		Address: ratesBody().Address, IdempotencyKey: "idem-1",
	}
	w := postJSON(r, "/checkout/complete", body, customerHeaders())

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetOrder_Success(t *testing.T) {
	r := setupRouter(&mockCheckout{}, &stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/orders/ORD-1001", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var order models.Order
	_ = json.Unmarshal(w.Body.Bytes(), &order)
	assert.Equal(t, "ORD-1001", order.OrderNumber)
}

func TestGetOrder_NotFound(t *testing.T) {
	checkout := &mockCheckout{
		orderErr: &services.ServiceError{StatusCode: 404, Message: "Order not found"},
	}
	r := setupRouter(checkout, &stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/orders/ORD-9999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
