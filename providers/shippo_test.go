package providers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-service/models"
	"checkout-service/providers"

	"github.com/stretchr/testify/assert"
)

func origin() models.ShippingAddress {
	return models.ShippingAddress{
		FirstName: "Warehouse",
		Address1:  "1 Depot Way",
		City:      "Reno",
		State:     "NV",
		ZipCode:   "89501",
		Country:   "United States",
	}
}

func destination() models.ShippingAddress {
	return models.ShippingAddress{
		FirstName: "Jamie", LastName: "Rivera",
		Address1: "500 Market St", City: "San Francisco",
		State: "CA", ZipCode: "94105", Country: "United States",
	}
}

func TestGetRates_ParsesShipmentResponse(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		assert.Equal(t, "/shipments/", r.URL.Path)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"rates": []map[string]interface{}{
				{
					"object_id": "rate_1",
					"provider":  "UPS",
					"servicelevel": map[string]string{
						"name":  "Ground",
						"token": "ups_ground",
					},
					"amount":         "11.50",
					"currency":       "USD",
					"estimated_days": 4,
					"duration_terms": "Delivery in 4 business days",
				},
				{
					"object_id":    "rate_2",
					"provider":     "USPS",
					"servicelevel": map[string]string{"name": "Priority Mail", "token": "usps_priority"},
					"amount":       "not-a-number",
					"currency":     "USD",
				},
			},
		})
	}))
	defer srv.Close()

	provider := providers.NewShippoProvider("shippo_test_token", origin()).WithBaseURL(srv.URL)

	rates, err := provider.GetRates(context.Background(), destination())

	assert.NoError(t, err)
	assert.Equal(t, "ShippoToken shippo_test_token", gotAuth)
	// Unparseable amounts are skipped, not fatal.
	assert.Len(t, rates, 1)
	assert.Equal(t, models.ShippingRate{
		Carrier:       "UPS",
		Service:       "Ground",
		ServiceLevel:  "ups_ground",
		Amount:        11.50,
		Currency:      "USD",
		EstimatedDays: 4,
		DurationTerms: "Delivery in 4 business days",
		RateID:        "rate_1",
	}, rates[0])

	addrTo, _ := gotBody["address_to"].(map[string]interface{})
	assert.Equal(t, "Jamie Rivera", addrTo["name"])
	// "United States" is normalized to the ISO code Shippo expects.
	assert.Equal(t, "US", addrTo["country"])
}

func TestGetRates_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Invalid token."}`))
	}))
	defer srv.Close()

	provider := providers.NewShippoProvider("bad_token", origin()).WithBaseURL(srv.URL)

	rates, err := provider.GetRates(context.Background(), destination())

	assert.Error(t, err)
	assert.Nil(t, rates)
	assert.Contains(t, err.Error(), "status 401")
}
