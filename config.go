package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"checkout-service/models"
)

// Config holds all configuration for the checkout service.
type Config struct {
	Port                 string
	RedisURL             string
	KafkaBrokers         []string
	KafkaTopic           string
	ShippoAPIKey         string
	StripeSecretKey      string
	StripePublishableKey string
	TaxRate              float64
	CartTTL              time.Duration
	SessionTTL           time.Duration
	// Warehouse / origin address defaults
	OriginFirstName string
	OriginLastName  string
	OriginStreet1   string
	OriginCity      string
	OriginState     string
	OriginZipCode   string
	OriginCountry   string
	OriginPhone     string
}

// OriginAddress builds the ship-from address from origin config values.
func (c *Config) OriginAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FirstName: c.OriginFirstName,
		LastName:  c.OriginLastName,
		Address1:  c.OriginStreet1,
		City:      c.OriginCity,
		State:     c.OriginState,
		ZipCode:   c.OriginZipCode,
		Country:   c.OriginCountry,
		Phone:     c.OriginPhone,
	}
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	taxRate := 0.06
	if v := os.Getenv("TAX_RATE"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TAX_RATE %q: %w", v, err)
		}
		taxRate = parsed
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8094"),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379"),
		KafkaBrokers:         strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "checkout.completed"),
		ShippoAPIKey:         os.Getenv("SHIPPO_API_KEY"),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		TaxRate:              taxRate,
		CartTTL:              time.Hour * 24 * 7,
		SessionTTL:           time.Hour * 24,
		OriginFirstName:      getEnv("ORIGIN_FIRST_NAME", "Warehouse"),
		OriginLastName:       getEnv("ORIGIN_LAST_NAME", "Fulfillment"),
		OriginStreet1:        getEnv("ORIGIN_STREET1", "123 Warehouse Blvd"),
		OriginCity:           getEnv("ORIGIN_CITY", "San Francisco"),
		OriginState:          getEnv("ORIGIN_STATE", "CA"),
		OriginZipCode:        getEnv("ORIGIN_ZIP_CODE", "94105"),
		OriginCountry:        getEnv("ORIGIN_COUNTRY", "US"),
		OriginPhone:          getEnv("ORIGIN_PHONE", "+14155550100"),
	}

	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY not set")
	}
	if cfg.StripePublishableKey == "" {
		return nil, fmt.Errorf("STRIPE_PUBLISHABLE_KEY not set")
	}
	if cfg.ShippoAPIKey == "" {
		return nil, fmt.Errorf("SHIPPO_API_KEY not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
