package controllers

import (
	"net/http"

	"checkout-service/middleware"
	"checkout-service/models"
	"checkout-service/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CartController handles the supporting cart surface the storefront
// uses around checkout.
type CartController struct {
	repo   repository.CartRepository
	logger *zap.Logger
}

func NewCartController(repo repository.CartRepository, logger *zap.Logger) *CartController {
	return &CartController{repo: repo, logger: logger}
}

// GetCart returns the current cart, empty if none exists yet.
func (cc *CartController) GetCart(c *gin.Context) {
	id := middleware.GetIdentity(c)

	cart, err := cc.repo.GetCart(c.Request.Context(), id.CartID)
	if err != nil {
		cc.logger.Error("Failed to get cart", zap.String("cart_id", id.CartID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get cart"})
		return
	}
	if cart == nil {
		cart = &models.Cart{UserID: id.CartID, Items: []models.CartItem{}}
	}

	c.JSON(http.StatusOK, cart)
}

// AddItem adds or increments an item in the cart.
func (cc *CartController) AddItem(c *gin.Context) {
	id := middleware.GetIdentity(c)

	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	ctx := c.Request.Context()
	cart, err := cc.repo.GetCart(ctx, id.CartID)
	if err != nil {
		cc.logger.Error("Failed to get cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get cart"})
		return
	}
	if cart == nil {
		cart = &models.Cart{UserID: id.CartID, Items: []models.CartItem{}}
	}

	found := false
	for i, existing := range cart.Items {
		if existing.ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, item)
	}

	if err := cc.repo.SaveCart(ctx, cart); err != nil {
		cc.logger.Error("Failed to save cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// RemoveItem removes a product from the cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	id := middleware.GetIdentity(c)
	productID := c.Param("product_id")
	ctx := c.Request.Context()

	cart, err := cc.repo.GetCart(ctx, id.CartID)
	if err != nil || cart == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}

	newItems := make([]models.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.ProductID != productID {
			newItems = append(newItems, item)
		}
	}
	cart.Items = newItems

	if err := cc.repo.SaveCart(ctx, cart); err != nil {
		cc.logger.Error("Failed to update cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// ClearCart removes all items from the cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	id := middleware.GetIdentity(c)

	if err := cc.repo.DeleteCart(c.Request.Context(), id.CartID); err != nil {
		cc.logger.Error("Failed to clear cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
