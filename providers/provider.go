package providers

import (
	"context"

	"checkout-service/models"
)

// RateProvider resolves carrier options for a destination address.
type RateProvider interface {
	GetRates(ctx context.Context, destination models.ShippingAddress) ([]models.ShippingRate, error)
}
