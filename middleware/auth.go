package middleware

import (
	"net/http"

	"checkout-service/services"

	"github.com/gin-gonic/gin"
)

const identityContextKey = "identity"

// Identity reads the gateway-authenticated customer id (X-User-ID) and
// the guest cart token (X-Cart-ID). Checkout routes accept guests, so
// the customer id is optional; a cart owner key must exist either way.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.GetHeader("X-User-ID")
		cartID := customerID
		if cartID == "" {
			cartID = c.GetHeader("X-Cart-ID")
		}
		if cartID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing cart identity"})
			return
		}
		c.Set(identityContextKey, services.Identity{CustomerID: customerID, CartID: cartID})
		c.Next()
	}
}

// RequireCustomer rejects guests. Used for the address book.
func RequireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetIdentity(c)
		if id.IsGuest() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func GetIdentity(c *gin.Context) services.Identity {
	if val, ok := c.Get(identityContextKey); ok {
		if id, ok := val.(services.Identity); ok {
			return id
		}
	}
	return services.Identity{}
}
