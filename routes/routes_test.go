package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"checkout-service/controllers"
	"checkout-service/models"
	"checkout-service/routes"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type noopCheckout struct{}

func (noopCheckout) InitializeSession(_ context.Context, _ services.Identity, _ *models.InitializeSessionRequest) (*models.CheckoutSession, *services.ServiceError) {
	return &models.CheckoutSession{SessionID: "cs_abc"}, nil
}
func (noopCheckout) CreatePaymentIntent(_ context.Context, _ string) (string, *services.ServiceError) {
	return "pi_1_secret_abc", nil
}
func (noopCheckout) CompleteCheckout(_ context.Context, _ services.Identity, _ *models.CompleteCheckoutRequest) (*models.Order, *services.ServiceError) {
	return &models.Order{OrderNumber: "ORD-1001"}, nil
}
func (noopCheckout) GetOrder(_ context.Context, orderNumber string) (*models.Order, *services.ServiceError) {
	return &models.Order{OrderNumber: orderNumber}, nil
}

type fallbackResolver struct{}

func (fallbackResolver) Resolve(_ context.Context, _ models.ShippingAddress) ([]models.ShippingRate, models.RateSource) {
	return services.FallbackRates(), models.RateSourceFallbackError
}

type noopProcessor struct{}

func (noopProcessor) PublishableKey() string { return "pk_test_abc" }
func (noopProcessor) CreatePaymentIntent(_ context.Context, _ int64, _ string) (string, string, error) {
	return "", "", nil
}
func (noopProcessor) ConfirmPayment(_ context.Context, _ string) (services.PaymentResult, error) {
	return services.PaymentResult{}, nil
}

type nilCartRepo struct{}

func (nilCartRepo) GetCart(_ context.Context, _ string) (*models.Cart, error) { return nil, nil }
func (nilCartRepo) SaveCart(_ context.Context, cart *models.Cart) error       { return nil }
func (nilCartRepo) DeleteCart(_ context.Context, _ string) error              { return nil }

type nilAddressRepo struct{}

func (nilAddressRepo) FindByUserID(_ context.Context, _ string) ([]models.Address, error) {
	return nil, nil
}
func (nilAddressRepo) Create(_ context.Context, _ *models.Address) error { return nil }

func registeredRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	logger := zap.NewNop()
	routes.Register(r,
		controllers.NewCheckoutController(noopCheckout{}, fallbackResolver{}, noopProcessor{}),
		controllers.NewCartController(nilCartRepo{}, logger),
		controllers.NewAddressController(nilAddressRepo{}, logger),
	)
	return r
}

// Config and rates back the storefront bootstrap, before any cart or
// identity headers exist.
func TestRegister_ConfigNeedsNoIdentity(t *testing.T) {
	r := registeredRouter()

	req := httptest.NewRequest(http.MethodGet, "/checkout/config", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_RatesNeedNoIdentity(t *testing.T) {
	r := registeredRouter()

	body := `{"address":{"first_name":"Jamie","last_name":"Rivera","address1":"500 Market St","city":"San Francisco","state":"CA","zip_code":"94105"}}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/rates", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_SessionStillRequiresIdentity(t *testing.T) {
	r := registeredRouter()

	body := `{"address":{"first_name":"Jamie","last_name":"Rivera","address1":"500 Market St","city":"San Francisco","state":"CA","zip_code":"94105"},"shipping_method":"ups_ground"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_CompleteStillRequiresIdentity(t *testing.T) {
	r := registeredRouter()

	req := httptest.NewRequest(http.MethodPost, "/checkout/complete", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
