package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	// Guest store DSN: a sqlite file path by default, a postgres URL for
	// multi-replica deployments.
	GuestStoreDSN string

	ShopAPIURL string
	JWTSecret  []byte

	KafkaBrokers []string
	EventsTopic  string

	SessionTTL time.Duration

	// Shipping quote, minor units.
	ShippingFee     int64
	FreeShippingMin int64
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront-gateway"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		GuestStoreDSN: EnvDefault("GUEST_STORE_DSN", "storefront.db"),

		ShopAPIURL: must(os.Getenv("SHOP_API_URL"), "SHOP_API_URL"),
		JWTSecret:  []byte(must(os.Getenv("JWT_SECRET"), "JWT_SECRET")),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		EventsTopic:  EnvDefault("EVENTS_TOPIC", "storefront_events"),

		SessionTTL: EnvDurationDefault("SESSION_TTL", 24*time.Hour),

		ShippingFee:     EnvInt64Default("SHIPPING_FEE", 4900),
		FreeShippingMin: EnvInt64Default("FREE_SHIPPING_MIN", 500000),
	}
	return cfg
}

func must(v string, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvInt64Default(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
