package routes

import (
	"checkout-service/controllers"
	"checkout-service/middleware"

	"github.com/gin-gonic/gin"
)

// Register sets up all routes for the checkout service.
func Register(
	r *gin.Engine,
	checkout *controllers.CheckoutController,
	cart *controllers.CartController,
	address *controllers.AddressController,
) {
	// Config and rates have no identity inputs: the storefront calls
	// them before any cart or login exists.
	co := r.Group("/checkout")
	co.GET("/config", checkout.GetConfig)
	co.POST("/rates", checkout.GetRates)

	session := co.Group("", middleware.Identity())
	session.POST("/session", checkout.InitializeSession)
	session.POST("/payment-intent", checkout.CreatePaymentIntent)
	session.POST("/complete", checkout.CompleteCheckout)

	orders := r.Group("/orders")
	orders.Use(middleware.Identity())
	orders.GET("/:order_number", checkout.GetOrder)

	ct := r.Group("/cart")
	ct.Use(middleware.Identity())
	ct.GET("", cart.GetCart)
	ct.POST("/items", cart.AddItem)
	ct.DELETE("/items/:product_id", cart.RemoveItem)
	ct.DELETE("", cart.ClearCart)

	ad := r.Group("/addresses")
	ad.Use(middleware.Identity(), middleware.RequireCustomer())
	ad.GET("", address.ListAddresses)
	ad.POST("", address.CreateAddress)
}
