package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"checkout-service/models"
)

const defaultShippoBaseURL = "https://api.goshippo.com"

// ShippoProvider implements RateProvider against the Shippo API.
type ShippoProvider struct {
	apiKey     string
	baseURL    string
	origin     models.ShippingAddress
	httpClient *http.Client
}

// NewShippoProvider creates a ShippoProvider shipping from the given
// origin (warehouse) address.
func NewShippoProvider(apiKey string, origin models.ShippingAddress) *ShippoProvider {
	return &ShippoProvider{
		apiKey:  apiKey,
		baseURL: defaultShippoBaseURL,
		origin:  origin,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (s *ShippoProvider) WithBaseURL(url string) *ShippoProvider {
	s.baseURL = url
	return s
}

// ---- Shippo API request/response structs ----

type shippoAddress struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type shippoParcel struct {
	Length       string `json:"length"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	DistanceUnit string `json:"distance_unit"`
	Weight       string `json:"weight"`
	MassUnit     string `json:"mass_unit"`
}

type shippoShipmentRequest struct {
	AddressFrom shippoAddress  `json:"address_from"`
	AddressTo   shippoAddress  `json:"address_to"`
	Parcels     []shippoParcel `json:"parcels"`
	Async       bool           `json:"async"`
}

type shippoRate struct {
	ObjectID     string `json:"object_id"`
	Provider     string `json:"provider"`
	ServiceLevel struct {
		Name  string `json:"name"`
		Token string `json:"token"`
	} `json:"servicelevel"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	EstimatedDays int    `json:"estimated_days"`
	DurationTerms string `json:"duration_terms"`
}

type shippoShipmentResponse struct {
	Rates []shippoRate `json:"rates"`
}

// GetRates creates a Shippo shipment and returns available rates in the
// order Shippo returned them.
func (s *ShippoProvider) GetRates(ctx context.Context, destination models.ShippingAddress) ([]models.ShippingRate, error) {
	reqBody := shippoShipmentRequest{
		AddressFrom: toShippoAddress(s.origin),
		AddressTo:   toShippoAddress(destination),
		Parcels: []shippoParcel{
			{
				Length:       "10",
				Width:        "10",
				Height:       "10",
				DistanceUnit: "in",
				Weight:       "1",
				MassUnit:     "lb",
			},
		},
		Async: false,
	}

	var resp shippoShipmentResponse
	if err := s.doRequest(ctx, http.MethodPost, "/shipments/", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("shippo GetRates: %w", err)
	}

	rates := make([]models.ShippingRate, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		amount, err := strconv.ParseFloat(r.Amount, 64)
		if err != nil {
			continue
		}
		rates = append(rates, models.ShippingRate{
			Carrier:       r.Provider,
			Service:       r.ServiceLevel.Name,
			ServiceLevel:  r.ServiceLevel.Token,
			Amount:        amount,
			Currency:      r.Currency,
			EstimatedDays: r.EstimatedDays,
			DurationTerms: r.DurationTerms,
			RateID:        r.ObjectID,
		})
	}

	return rates, nil
}

func (s *ShippoProvider) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "ShippoToken "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("shippo API error (status %d): %s", resp.StatusCode, string(respBytes))
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func toShippoAddress(a models.ShippingAddress) shippoAddress {
	name := a.FirstName
	if a.LastName != "" {
		name += " " + a.LastName
	}
	country := a.Country
	if country == "" || country == models.DefaultCountry {
		country = "US"
	}
	return shippoAddress{
		Name:    name,
		Street1: a.Address1,
		Street2: a.Address2,
		City:    a.City,
		State:   a.State,
		Zip:     a.ZipCode,
		Country: country,
		Phone:   a.Phone,
		Email:   a.Email,
	}
}
