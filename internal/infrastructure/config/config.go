package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Pricing PricingConfig

	FedEx CarrierConfig `env:", prefix=FEDEX_"`
	DHL   CarrierConfig `env:", prefix=DHL_"`
	UPS   CarrierConfig `env:", prefix=UPS_"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=shipping_marketplace"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// CarrierConfig carries one carrier's API credentials. A carrier with no API
// key is reported as "Service not configured" in quote results.
type CarrierConfig struct {
	APIKey        string        `env:"API_KEY"`
	APISecret     string        `env:"API_SECRET"`
	AccountNumber string        `env:"ACCOUNT_NUMBER"`
	Timeout       time.Duration `env:"TIMEOUT, default=5s"`
}

// Configured reports whether the carrier has credentials.
func (c CarrierConfig) Configured() bool {
	return c.APIKey != ""
}

// PricingConfig carries the pricing pipeline knobs.
type PricingConfig struct {
	CommissionFloorPct float64       `env:"COMMISSION_FLOOR_PCT, default=15.0"`
	RateCacheTTL       time.Duration `env:"RATE_CACHE_TTL,       default=300s"`
	CarrierTimeout     time.Duration `env:"CARRIER_TIMEOUT,      default=5s"`
	CheckoutTolerance  float64       `env:"CHECKOUT_TOLERANCE,   default=0.50"`
	HandlingFee        float64       `env:"HANDLING_FEE,         default=10.00"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
