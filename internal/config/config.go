package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full server configuration. Values come from an
// optional YAML file (CONFIG_FILE) with environment variables taking
// precedence.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`

	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTAudience string        `yaml:"jwt_audience"`
	JWTExpiry   time.Duration `yaml:"jwt_expiry"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`

	EnableMetrics bool `yaml:"enable_metrics"`
}

func Load() *Config {
	config := &Config{
		Addr:          ":8080",
		JWTIssuer:     "triveni-inventory-api",
		JWTAudience:   "triveni-inventory-api",
		JWTExpiry:     24 * time.Hour, // Default to 24 hours
		AdminUsername: "Priyanshu",
	}

	// Optional YAML file first, env overrides after
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(data, config)
		}
	}

	config.Addr = getEnv("ADDR", config.Addr)
	config.DatabaseURL = getEnv("DATABASE_URL", config.DatabaseURL)
	config.JWTSecret = getEnv("JWT_SECRET", config.JWTSecret)
	config.JWTIssuer = getEnv("JWT_ISS", config.JWTIssuer)
	config.JWTAudience = getEnv("JWT_AUD", config.JWTAudience)
	config.AdminUsername = getEnv("ADMIN_USERNAME", config.AdminUsername)
	config.AdminPassword = getEnv("ADMIN_PASSWORD", config.AdminPassword)

	if expiryStr := os.Getenv("JWT_EXPIRY"); expiryStr != "" {
		if expiry, err := time.ParseDuration(expiryStr); err == nil {
			config.JWTExpiry = expiry
		}
	}
	if v := os.Getenv("ENABLE_METRICS"); v != "" {
		config.EnableMetrics = v == "true"
	}

	return config
}

// LoadAndValidate loads the configuration and rejects values the server
// cannot run with.
func LoadAndValidate() (*Config, error) {
	cfg := Load()

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}
	if cfg.JWTExpiry <= 0 {
		return nil, errors.New("JWT_EXPIRY must be positive")
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
