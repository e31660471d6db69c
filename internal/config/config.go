// Package config assembles environment-supplied settings into explicit
// configuration objects. Required conversion settings are checked once at
// construction so a misdeployed service fails at startup, not per request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/grovegear/storefront/internal/errs"
)

type Config struct {
	HTTPPort   string
	JWTSecret  string
	Database   Database
	Kafka      Kafka
	Conversion Conversion
	Pricing    Pricing
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Kafka is optional: an empty broker list runs the service without order
// event publication.
type Kafka struct {
	Brokers string
}

// Conversion configures the outbound conversions API client and handler.
type Conversion struct {
	Endpoint       string
	AccessToken    string
	PayloadMode    string // "flat" or "nested"
	DefaultBaseURL string
	Timeout        time.Duration
}

// Validate reports all missing required settings at once.
func (c Conversion) Validate() error {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, "CONVERSION_ENDPOINT")
	}
	if c.AccessToken == "" {
		missing = append(missing, "CONVERSION_ACCESS_TOKEN")
	}
	if c.PayloadMode != "flat" && c.PayloadMode != "nested" {
		missing = append(missing, "CONVERSION_PAYLOAD_MODE (flat|nested)")
	}
	if len(missing) > 0 {
		return &errs.ConfigurationError{Missing: missing}
	}
	return nil
}

// Pricing holds the single-market checkout constants. Tax rate is in basis
// points so money math stays integral.
type Pricing struct {
	Currency          string
	ShippingFlatCents int64
	TaxRateBps        int64
}

func Load() Config {
	return Config{
		HTTPPort:  getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", ""),
		Database: Database{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "storefront"),
			Password: getEnv("DB_PASSWORD", "storefront"),
			Name:     getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: Kafka{
			Brokers: getEnv("KAFKA_BROKERS", ""),
		},
		Conversion: Conversion{
			Endpoint:       getEnv("CONVERSION_ENDPOINT", ""),
			AccessToken:    getEnv("CONVERSION_ACCESS_TOKEN", ""),
			PayloadMode:    getEnv("CONVERSION_PAYLOAD_MODE", "flat"),
			DefaultBaseURL: getEnv("STOREFRONT_BASE_URL", "https://shop.grovegear.com"),
			Timeout:        getEnvDuration("CONVERSION_TIMEOUT", 10*time.Second),
		},
		Pricing: Pricing{
			Currency:          getEnv("ORDER_CURRENCY", "USD"),
			ShippingFlatCents: getEnvInt64("SHIPPING_FLAT_CENTS", 599),
			TaxRateBps:        getEnvInt64("TAX_RATE_BPS", 700),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
