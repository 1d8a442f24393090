package models

// ShippingAddress is the address collected by the checkout shipping form.
type ShippingAddress struct {
	FirstName           string `json:"first_name" binding:"required"`
	LastName            string `json:"last_name" binding:"required"`
	Email               string `json:"email,omitempty"`
	Phone               string `json:"phone,omitempty"`
	Address1            string `json:"address1" binding:"required"`
	Address2            string `json:"address2,omitempty"`
	City                string `json:"city" binding:"required"`
	State               string `json:"state" binding:"required"`
	ZipCode             string `json:"zip_code" binding:"required"`
	Country             string `json:"country"`
	UseDifferentBilling bool   `json:"use_different_billing,omitempty"`
}

// DefaultCountry is applied when the form leaves the country blank.
const DefaultCountry = "United States"

func (a *ShippingAddress) Normalize() {
	if a.Country == "" {
		a.Country = DefaultCountry
	}
}

// ShippingRate is a single carrier option offered during checkout.
// ServiceLevel is the stable token the backend uses to recompute the
// authoritative shipping cost at session time.
type ShippingRate struct {
	Carrier       string  `json:"carrier"`
	Service       string  `json:"service"`
	ServiceLevel  string  `json:"service_level"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	EstimatedDays int     `json:"estimated_days,omitempty"`
	DurationTerms string  `json:"duration_terms,omitempty"`
	RateID        string  `json:"rate_id"`
	IsFallback    bool    `json:"is_fallback"`
}

// RateSource records how a rate list was obtained so callers can word
// the user notification, if any.
type RateSource int

const (
	RateSourceLive RateSource = iota
	// Provider responded with zero rates; fallback table substituted.
	RateSourceFallbackEmpty
	// Provider call failed; fallback table substituted.
	RateSourceFallbackError
)

func (s RateSource) Estimated() bool { return s != RateSourceLive }

// ShippingRatesRequest is the payload for POST /checkout/rates.
type ShippingRatesRequest struct {
	Address ShippingAddress `json:"address" binding:"required"`
}
