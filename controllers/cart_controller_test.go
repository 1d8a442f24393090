package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-service/controllers"
	"checkout-service/middleware"
	"checkout-service/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeCartRepo struct {
	carts   map[string]*models.Cart
	deletes int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[string]*models.Cart{}}
}

func (f *fakeCartRepo) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	return f.carts[userID], nil
}

func (f *fakeCartRepo) SaveCart(_ context.Context, cart *models.Cart) error {
	f.carts[cart.UserID] = cart
	return nil
}

func (f *fakeCartRepo) DeleteCart(_ context.Context, userID string) error {
	f.deletes++
	delete(f.carts, userID)
	return nil
}

func setupCartRouter(repo *fakeCartRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c := controllers.NewCartController(repo, zap.NewNop())

	cart := r.Group("/cart", middleware.Identity())
	cart.GET("", c.GetCart)
	cart.POST("/items", c.AddItem)
	cart.DELETE("/items/:product_id", c.RemoveItem)
	cart.DELETE("", c.ClearCart)
	return r
}

func TestGetCart_EmptyWhenAbsent(t *testing.T) {
	r := setupCartRouter(newFakeCartRepo())

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-Cart-ID", "guest-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var cart models.Cart
	_ = json.Unmarshal(w.Body.Bytes(), &cart)
	assert.Empty(t, cart.Items)
}

func TestAddItem_IncrementsExistingLine(t *testing.T) {
	repo := newFakeCartRepo()
	repo.carts["u1"] = &models.Cart{
		UserID: "u1",
		Items:  []models.CartItem{{ProductID: "p1", Name: "Mug", Price: 25.00, Quantity: 1}},
	}
	r := setupCartRouter(repo)

	w := postJSON(r, "/cart/items", models.CartItem{ProductID: "p1", Quantity: 2}, customerHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, repo.carts["u1"].Items, 1)
	assert.Equal(t, 3, repo.carts["u1"].Items[0].Quantity)
}

func TestRemoveItem_DropsLine(t *testing.T) {
	repo := newFakeCartRepo()
	repo.carts["u1"] = &models.Cart{
		UserID: "u1",
		Items: []models.CartItem{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 1},
		},
	}
	r := setupCartRouter(repo)

	req := httptest.NewRequest(http.MethodDelete, "/cart/items/p1", nil)
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, repo.carts["u1"].Items, 1)
	assert.Equal(t, "p2", repo.carts["u1"].Items[0].ProductID)
}

func TestClearCart_Deletes(t *testing.T) {
	repo := newFakeCartRepo()
	repo.carts["u1"] = &models.Cart{UserID: "u1", Items: []models.CartItem{{ProductID: "p1", Quantity: 1}}}
	r := setupCartRouter(repo)

	req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, repo.deletes)
	assert.Nil(t, repo.carts["u1"])
}
