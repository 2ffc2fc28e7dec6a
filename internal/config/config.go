package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/susu3304/partybot/internal/i18n"
	"github.com/susu3304/partybot/internal/logging"
)

// DevJWTSecret is the signing key used when JWT_SECRET is unset. Anyone can
// mint tokens with it, so Validate refuses it in production.
const DevJWTSecret = "dev-only-change-me"

type Config struct {
	// Discord Bot
	DiscordToken string

	// Discord OAuth2
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Storage: Postgres when DatabaseURL is set, the JSON file otherwise
	DatabaseURL string
	DataFile    string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session
	JWTSecret  string
	SessionTTL time.Duration

	// Logging
	AppEnv   string
	LogLevel string

	DefaultLanguage i18n.Language
}

// Load reads the environment (and .env when present). Only values that
// cannot be parsed are errors; what each command requires is checked by
// Validate.
func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DataFile:            getEnvDefault("DATA_FILE", "data.json"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           getEnvDefault("JWT_SECRET", DevJWTSecret),
		AppEnv:              getEnvDefault("APP_ENV", "production"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
	}

	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	ttl, err := time.ParseDuration(getEnvDefault("SESSION_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	lang, ok := i18n.Parse(getEnvDefault("DEFAULT_LANGUAGE", string(i18n.Default)))
	if !ok {
		return nil, fmt.Errorf("DEFAULT_LANGUAGE: unsupported language %q", os.Getenv("DEFAULT_LANGUAGE"))
	}
	cfg.DefaultLanguage = lang

	return cfg, nil
}

// Validate checks what the long-running bot needs.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.DatabaseURL == "" && c.DataFile == "" {
		return fmt.Errorf("DATABASE_URL or DATA_FILE is required")
	}
	if (c.DiscordClientID == "") != (c.DiscordClientSecret == "") {
		return fmt.Errorf("DISCORD_CLIENT_ID and DISCORD_CLIENT_SECRET must be set together")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTSecret == DevJWTSecret && logging.ParseEnvironment(c.AppEnv) == logging.Production {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// OAuthEnabled reports whether Discord login is configured for the web API.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
