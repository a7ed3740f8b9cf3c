// Package config provides configuration loading and management for the
// retrieval service. It handles environment variable parsing and provides
// default values for all settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package
// initialization. In development, it loads .env and .env.local files if they
// exist; in production it relies solely on system environment variables.
// godotenv.Load does not override already-set variables, preserving
// OS env > .env precedence.
func init() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the retrieval service.
type Config struct {
	Env  string // Deployment environment (dev, staging, prod)
	Port string // HTTP server port

	// Management console connection
	ConsoleBaseURL      string // Console API base URL (required)
	ConsoleTokenURL     string // OAuth2 token endpoint; empty disables auth
	ConsoleClientID     string
	ConsoleClientSecret string

	NATSURL string // NATS server URL for audit events (optional)

	// Retrieval defaults
	DefaultImageCount int // Images returned when the caller does not ask for a count

	// CORS configuration
	CORSAllowedOrigins []string // Allowed origins for CORS (empty means deny all)
}

// Default configuration values used when environment variables are not set
const (
	defaultPort       = "8080"
	defaultEnv        = "dev"
	defaultImageCount = 5
)

// Load reads environment variables and produces a Config suitable for wiring
// the service. Returns an error if required parameters are missing or
// invalid: the console base URL is required, and token-based auth needs both
// client credentials.
func Load() (Config, error) {
	cfg := Config{}

	if env, exists := os.LookupEnv("RTV_ENV"); exists {
		cfg.Env = env
	} else {
		cfg.Env = defaultEnv
	}

	if port, exists := os.LookupEnv("RTV_PORT"); exists {
		cfg.Port = port
	} else {
		cfg.Port = defaultPort
	}

	cfg.ConsoleBaseURL = os.Getenv("RTV_CONSOLE_BASE_URL")
	cfg.ConsoleTokenURL = os.Getenv("RTV_CONSOLE_TOKEN_URL")
	cfg.ConsoleClientID = os.Getenv("RTV_CONSOLE_CLIENT_ID")
	cfg.ConsoleClientSecret = os.Getenv("RTV_CONSOLE_CLIENT_SECRET")
	cfg.NATSURL = os.Getenv("RTV_NATS_URL")

	if count, exists := os.LookupEnv("RTV_DEFAULT_IMAGE_COUNT"); exists {
		n, err := strconv.Atoi(count)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("RTV_DEFAULT_IMAGE_COUNT must be a positive integer, got %q", count)
		}
		cfg.DefaultImageCount = n
	} else {
		cfg.DefaultImageCount = defaultImageCount
	}

	if corsOrigins, exists := os.LookupEnv("RTV_CORS_ALLOWED_ORIGINS"); exists {
		cfg.CORSAllowedOrigins = strings.Split(corsOrigins, ",")
		for i, origin := range cfg.CORSAllowedOrigins {
			cfg.CORSAllowedOrigins[i] = strings.TrimSpace(origin)
		}
	}

	// Validate required parameters
	if cfg.ConsoleBaseURL == "" {
		return cfg, fmt.Errorf("RTV_CONSOLE_BASE_URL is required")
	}

	if cfg.ConsoleTokenURL != "" && (cfg.ConsoleClientID == "" || cfg.ConsoleClientSecret == "") {
		return cfg, fmt.Errorf("RTV_CONSOLE_CLIENT_ID and RTV_CONSOLE_CLIENT_SECRET are required when RTV_CONSOLE_TOKEN_URL is set")
	}

	return cfg, nil
}
