package controllers

import (
	"net/http"

	"checkout-service/middleware"
	"checkout-service/models"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
)

// CheckoutController handles HTTP requests for the checkout flow.
type CheckoutController struct {
	checkout  services.CheckoutAPI
	resolver  services.RateResolver
	processor services.PaymentProcessor
}

func NewCheckoutController(checkout services.CheckoutAPI, resolver services.RateResolver, processor services.PaymentProcessor) *CheckoutController {
	return &CheckoutController{
		checkout:  checkout,
		resolver:  resolver,
		processor: processor,
	}
}

// GetConfig handles GET /checkout/config
func (cc *CheckoutController) GetConfig(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"publishable_key": cc.processor.PublishableKey()})
}

// GetRates handles POST /checkout/rates. Always 200: the resolver
// substitutes fallback rates rather than failing.
func (cc *CheckoutController) GetRates(ctx *gin.Context) {
	var req models.ShippingRatesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	req.Address.Normalize()

	rates, source := cc.resolver.Resolve(ctx.Request.Context(), req.Address)
	ctx.JSON(http.StatusOK, gin.H{
		"rates":     rates,
		"estimated": source.Estimated(),
	})
}

// InitializeSession handles POST /checkout/session
func (cc *CheckoutController) InitializeSession(ctx *gin.Context) {
	var req models.InitializeSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, svcErr := cc.checkout.InitializeSession(ctx.Request.Context(), middleware.GetIdentity(ctx), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// CreatePaymentIntent handles POST /checkout/payment-intent
func (cc *CheckoutController) CreatePaymentIntent(ctx *gin.Context) {
	var req models.CreatePaymentIntentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	clientSecret, svcErr := cc.checkout.CreatePaymentIntent(ctx.Request.Context(), req.SessionID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"client_secret": clientSecret})
}

// CompleteCheckout handles POST /checkout/complete
func (cc *CheckoutController) CompleteCheckout(ctx *gin.Context) {
	var req models.CompleteCheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := cc.checkout.CompleteCheckout(ctx.Request.Context(), middleware.GetIdentity(ctx), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /orders/:order_number
func (cc *CheckoutController) GetOrder(ctx *gin.Context) {
	orderNumber := ctx.Param("order_number")
	if orderNumber == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Order number is required"})
		return
	}

	order, svcErr := cc.checkout.GetOrder(ctx.Request.Context(), orderNumber)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, order)
}
