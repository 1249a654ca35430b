package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Backends
	CatalogURL  string
	AuthURL     string
	ChatURL     string
	BusinessURL string
	AlertsURL   string
	AnonKey     string // Supabase anon key sent with edge function calls

	// Outbound HTTP
	RequestTimeout time.Duration
	RatePerSecond  float64
	RateBurst      int
	MaxConcurrent  int
	ProxyURL       string

	// Catalog source: "api" or "file"
	Source      string
	CatalogFile string

	// Listing
	ProductsPerPage int
	Currency        string

	// Chat
	ChatPollInterval time.Duration

	// Local state (cookies, chat session id, alert cache)
	StateFile string

	// Servers
	HTTPPort       string
	GatewayPort    string
	APIKey         string
	AllowedOrigins string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CatalogURL:       "https://api.pricehub.example",
		AuthURL:          "https://auth.pricehub.example/functions/v1/standard-auth",
		ChatURL:          "https://auth.pricehub.example/functions/v1/chat",
		BusinessURL:      "https://business.pricehub.example/api",
		AlertsURL:        "https://api.pricehub.example/data/price-alerts",
		RequestTimeout:   30 * time.Second,
		RatePerSecond:    5.0,
		RateBurst:        5,
		MaxConcurrent:    4,
		Source:           "api",
		ProductsPerPage:  12,
		Currency:         "KSh",
		ChatPollInterval: 20 * time.Second,
		StateFile:        defaultStateFile(),
		HTTPPort:         "8080",
		GatewayPort:      "8081",
	}
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("PRICEHUB_CATALOG_URL"); v != "" {
		c.CatalogURL = v
	}
	if v := os.Getenv("PRICEHUB_AUTH_URL"); v != "" {
		c.AuthURL = v
	}
	if v := os.Getenv("PRICEHUB_CHAT_URL"); v != "" {
		c.ChatURL = v
	}
	if v := os.Getenv("PRICEHUB_BUSINESS_URL"); v != "" {
		c.BusinessURL = v
	}
	if v := os.Getenv("PRICEHUB_ALERTS_URL"); v != "" {
		c.AlertsURL = v
	}
	if v := os.Getenv("PRICEHUB_ANON_KEY"); v != "" {
		c.AnonKey = v
	}
	if v := os.Getenv("PRICEHUB_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := os.Getenv("PRICEHUB_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("PRICEHUB_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateBurst = n
		}
	}
	if v := os.Getenv("PRICEHUB_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv("PRICEHUB_PROXY"); v != "" {
		c.ProxyURL = v
	}
	if v := os.Getenv("PRICEHUB_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("PRICEHUB_CATALOG_FILE"); v != "" {
		c.CatalogFile = v
	}
	if v := os.Getenv("PRICEHUB_CURRENCY"); v != "" {
		c.Currency = v
	}
	if v := os.Getenv("PRICEHUB_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ProductsPerPage = n
		}
	}
	if v := os.Getenv("PRICEHUB_CHAT_POLL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.ChatPollInterval = d
		}
	}
	if v := os.Getenv("PRICEHUB_STATE_FILE"); v != "" {
		c.StateFile = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("PRICEHUB_GATEWAY_PORT"); v != "" {
		c.GatewayPort = v
	}
	if v := os.Getenv("PRICEHUB_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("PRICEHUB_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = v
	}
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".pricehub-state.json"
	}
	return filepath.Join(dir, "pricehub", "state.json")
}
