package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	AdminUser     string
	AdminPassword string

	// SecretKey signs the admin session cookie. A random key is generated
	// when unset, which logs everyone out on restart.
	SecretKey string

	// ImportToken is the bearer token accepted by POST /api/flights.
	// Empty disables the import endpoint.
	ImportToken string

	DatabaseURL string
	ListenAddr  string

	// RetentionDays is how long flight rows and insights are kept.
	RetentionDays int

	// DashboardDays is the default window (by collection time) used by the
	// dashboard, route analysis and export endpoints.
	DashboardDays int

	AviationStackAPIKey  string
	AviationStackBaseURL string
	ScrapeURL            string

	MaxFlightsPerRequest int
	SyntheticCount       int
	SyntheticHorizonDays int

	APITimeout       time.Duration
	APIRatePerSecond float64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		AdminUser:            getenv("APP_ADMIN_USER", "admin"),
		AdminPassword:        getenv("APP_ADMIN_PASSWORD", "changeme"),
		SecretKey:            os.Getenv("APP_SECRET_KEY"),
		ImportToken:          os.Getenv("APP_IMPORT_TOKEN"),
		DatabaseURL:          os.Getenv("APP_DATABASE_URL"),
		ListenAddr:           getenv("APP_LISTEN_ADDR", ":8080"),
		RetentionDays:        getenvInt("APP_RETENTION_DAYS", 30),
		DashboardDays:        getenvInt("APP_DASHBOARD_DAYS", 30),
		AviationStackAPIKey:  os.Getenv("APP_AVIATIONSTACK_API_KEY"),
		AviationStackBaseURL: getenv("APP_AVIATIONSTACK_BASE_URL", "http://api.aviationstack.com/v1"),
		ScrapeURL:            os.Getenv("APP_SCRAPE_URL"),
		MaxFlightsPerRequest: getenvInt("APP_MAX_FLIGHTS_PER_REQUEST", 50),
		SyntheticCount:       getenvInt("APP_SYNTHETIC_COUNT", 60),
		SyntheticHorizonDays: getenvInt("APP_SYNTHETIC_HORIZON_DAYS", 30),
		APITimeout:           time.Duration(getenvInt("APP_API_TIMEOUT_SECONDS", 10)) * time.Second,
		APIRatePerSecond:     1,
		RedisAddr:            os.Getenv("APP_REDIS_ADDR"),
		RedisPassword:        os.Getenv("APP_REDIS_PASSWORD"),
		RedisDB:              getenvInt("APP_REDIS_DB", 0),
		CacheTTL:             time.Duration(getenvInt("APP_CACHE_TTL_SECONDS", 300)) * time.Second,
		KafkaBrokers:         splitList(os.Getenv("APP_KAFKA_BROKERS")),
		KafkaTopic:           getenv("APP_KAFKA_TOPIC", "flight-collections"),
	}

	if v := os.Getenv("APP_API_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.APIRatePerSecond = f
		}
	}

	if cfg.SecretKey == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err == nil {
			cfg.SecretKey = hex.EncodeToString(b)
		}
	}

	return cfg
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if c.SyntheticCount <= 0 {
		return errors.New("APP_SYNTHETIC_COUNT must be positive")
	}
	if c.SyntheticHorizonDays <= 0 {
		return errors.New("APP_SYNTHETIC_HORIZON_DAYS must be positive")
	}
	if c.MaxFlightsPerRequest <= 0 {
		return errors.New("APP_MAX_FLIGHTS_PER_REQUEST must be positive")
	}
	if c.RetentionDays <= 0 {
		return errors.New("APP_RETENTION_DAYS must be positive")
	}
	if c.DashboardDays <= 0 {
		return errors.New("APP_DASHBOARD_DAYS must be positive")
	}
	if c.SecretKey == "" {
		return errors.New("APP_SECRET_KEY could not be generated")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvInt returns def when the variable is unset or not an integer. Zero
// and negative values are passed through so Validate can reject them.
func getenvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
