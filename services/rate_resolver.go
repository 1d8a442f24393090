package services

import (
	"context"

	"checkout-service/models"
	"checkout-service/providers"

	"go.uber.org/zap"
)

// RateResolver resolves shipping rates for an address. It never fails:
// when the provider returns nothing or errors, a fixed fallback table
// is substituted so checkout can always proceed.
type RateResolver interface {
	Resolve(ctx context.Context, address models.ShippingAddress) ([]models.ShippingRate, models.RateSource)
}

// fallbackRates is the deterministic table used when live rates are
// unavailable. Amounts are hard-coded estimates; the backend recomputes
// shipping from the service_level token at session time regardless.
var fallbackRates = []models.ShippingRate{
	{Carrier: "USPS", Service: "First Class", ServiceLevel: "usps_first", Amount: 5.99, Currency: "USD", EstimatedDays: 5, DurationTerms: "Delivery in 3 to 5 business days", RateID: "fallback_usps_first", IsFallback: true},
	{Carrier: "USPS", Service: "Priority", ServiceLevel: "usps_priority", Amount: 9.99, Currency: "USD", EstimatedDays: 3, DurationTerms: "Delivery in 1 to 3 business days", RateID: "fallback_usps_priority", IsFallback: true},
	{Carrier: "USPS", Service: "Priority Express", ServiceLevel: "usps_priority_express", Amount: 24.99, Currency: "USD", EstimatedDays: 1, DurationTerms: "Overnight delivery to most locations", RateID: "fallback_usps_priority_express", IsFallback: true},
	{Carrier: "UPS", Service: "Ground", ServiceLevel: "ups_ground", Amount: 12.99, Currency: "USD", EstimatedDays: 5, DurationTerms: "Delivery in 1 to 5 business days", RateID: "fallback_ups_ground", IsFallback: true},
	{Carrier: "UPS", Service: "2-Day Air", ServiceLevel: "ups_second_day_air", Amount: 19.99, Currency: "USD", EstimatedDays: 2, DurationTerms: "Delivery in 2 business days", RateID: "fallback_ups_second_day_air", IsFallback: true},
	{Carrier: "UPS", Service: "Next Day Air", ServiceLevel: "ups_next_day_air", Amount: 29.99, Currency: "USD", EstimatedDays: 1, DurationTerms: "Next business day delivery", RateID: "fallback_ups_next_day_air", IsFallback: true},
}

// FallbackRates returns a copy of the fallback table.
func FallbackRates() []models.ShippingRate {
	out := make([]models.ShippingRate, len(fallbackRates))
	copy(out, fallbackRates)
	return out
}

// FallbackRateByServiceLevel looks up a fallback entry by its
// service_level token.
func FallbackRateByServiceLevel(serviceLevel string) (models.ShippingRate, bool) {
	for _, r := range fallbackRates {
		if r.ServiceLevel == serviceLevel {
			return r, true
		}
	}
	return models.ShippingRate{}, false
}

type rateResolverImpl struct {
	provider providers.RateProvider
	logger   *zap.Logger
}

func NewRateResolver(provider providers.RateProvider, logger *zap.Logger) RateResolver {
	return &rateResolverImpl{provider: provider, logger: logger}
}

// Resolve calls the provider once. Live rates are returned in the order
// received, unsorted. An error and an empty response converge on the
// same fallback table; only the reported source differs.
func (r *rateResolverImpl) Resolve(ctx context.Context, address models.ShippingAddress) ([]models.ShippingRate, models.RateSource) {
	rates, err := r.provider.GetRates(ctx, address)
	if err != nil {
		r.logger.Warn("Rate provider failed, substituting fallback rates", zap.Error(err))
		return FallbackRates(), models.RateSourceFallbackError
	}
	if len(rates) == 0 {
		r.logger.Warn("Rate provider returned no rates, substituting fallback rates",
			zap.String("zip_code", address.ZipCode),
		)
		return FallbackRates(), models.RateSourceFallbackEmpty
	}
	return rates, models.RateSourceLive
}
