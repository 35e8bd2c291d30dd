// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

// Config holds all application configuration.
type Config struct {
	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string `validate:"required"`
	DBPass      string `validate:"required_without=DatabaseURL"`
	DBHost      string `validate:"required"`
	DBPort      string `validate:"required,numeric"`
	DBName      string `validate:"required"`
	DBSSLMode   string `validate:"oneof=disable require verify-ca verify-full"`

	// JWT signing secret and token lifetime.
	JWTSecret string        `validate:"required,min=16"`
	TokenTTL  time.Duration `validate:"gt=0"`

	// Server
	Debug       bool
	Port        string `validate:"required"`
	TLSDomains  []string
	CORSOrigins []string `validate:"min=1"`

	// Rate limits in limiter format, e.g. "300-M".
	RateLimit     string `validate:"required,ratelimit"`
	AuthRateLimit string `validate:"required,ratelimit"`

	// How long authenticated users are cached by the JWT middleware.
	UserCacheTTL time.Duration `validate:"gte=0"`

	// Google sign-in; empty disables /auth/google.
	GoogleClientID string

	// MySQL – used only by cmd/migrate.
	MySQLDSN string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()

	cfg, err := Parse(v)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse builds and validates a Config from v.
func Parse(v *viper.Viper) (*Config, error) {
	// Defaults
	v.SetDefault("DB_USER", "racelog")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "racelog")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("PORT", ":9000")
	v.SetDefault("DEBUG", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("AUTH_RATE_LIMIT", "20-M")
	v.SetDefault("USER_CACHE_TTL", "1m")

	cfg := &Config{
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DBUser:         v.GetString("DB_USER"),
		DBPass:         v.GetString("DB_PASS"),
		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetString("DB_PORT"),
		DBName:         v.GetString("DB_NAME"),
		DBSSLMode:      v.GetString("DB_SSLMODE"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		Debug:          v.GetBool("DEBUG"),
		Port:           v.GetString("PORT"),
		TLSDomains:     splitTrimmed(v.GetString("TLS_DOMAINS")),
		CORSOrigins:    splitTrimmed(v.GetString("CORS_ORIGINS")),
		RateLimit:      v.GetString("RATE_LIMIT"),
		AuthRateLimit:  v.GetString("AUTH_RATE_LIMIT"),
		UserCacheTTL:   v.GetDuration("USER_CACHE_TTL"),
		GoogleClientID: v.GetString("GOOGLE_CLIENT_ID"),
		MySQLDSN:       v.GetString("MYSQL_DSN"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

func (c *Config) validate() error {
	v := validator.New()
	_ = v.RegisterValidation("ratelimit", func(fl validator.FieldLevel) bool {
		_, err := limiter.NewRateFromFormatted(fl.Field().String())
		return err == nil
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
