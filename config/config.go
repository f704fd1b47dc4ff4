// config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is built once at startup and injected into every component.
// Handlers never read the environment themselves.
type Config struct {
	DB struct {
		Host         string
		Port         string
		User         string
		Password     string
		DBName       string
		SSLMode      string
		MaxOpenConns int
		MaxIdleConns int
		ConnLifetime time.Duration
	}
	Stripe struct {
		SecretKey     string
		WebhookSecret string
	}
	Auth struct {
		BaseURL string
		AnonKey string
		Timeout time.Duration
	}
	App struct {
		// BaseURL is the redirect target of last resort when a checkout
		// request carries neither an Origin nor a usable Referer header.
		BaseURL         string
		TempAccessHours int
		PendingAgeHours int
		SweepEnabled    bool
		SweepInterval   time.Duration
	}
	Server struct {
		Port string
	}
	ShutdownTimeout time.Duration
}

// Load loads the configuration
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetConfigType("json")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	// Set default values
	v.SetDefault("ShutdownTimeout", 10*time.Second)
	v.SetDefault("Server.Port", "8080")
	v.SetDefault("DB.MaxOpenConns", 20)
	v.SetDefault("DB.MaxIdleConns", 10)
	v.SetDefault("DB.ConnLifetime", 5*time.Minute)
	v.SetDefault("Auth.Timeout", 15*time.Second)
	v.SetDefault("App.BaseURL", "https://selectiveprep.com.au")
	v.SetDefault("App.TempAccessHours", 24)
	v.SetDefault("App.PendingAgeHours", 24)
	v.SetDefault("App.SweepEnabled", true)
	v.SetDefault("App.SweepInterval", 24*time.Hour)

	v.AutomaticEnv()

	err := v.ReadInConfig()

	// No config file: assemble the config from environment variables.
	if err != nil {
		cfg := &Config{}

		cfg.DB.Host = getEnvOr("DB_HOST", "localhost")
		cfg.DB.Port = getEnvOr("DB_PORT", "5432")
		cfg.DB.User = getEnvOr("DB_USER", "postgres")
		cfg.DB.Password = getEnvOr("DB_PASSWORD", "postgres")
		cfg.DB.DBName = getEnvOr("DB_NAME", "selective_prep")
		cfg.DB.SSLMode = getEnvOr("DB_SSL_MODE", "disable")
		cfg.DB.MaxOpenConns = 20
		cfg.DB.MaxIdleConns = 10
		cfg.DB.ConnLifetime = 5 * time.Minute
		cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
		cfg.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
		cfg.Auth.BaseURL = os.Getenv("AUTH_BASE_URL")
		cfg.Auth.AnonKey = os.Getenv("AUTH_ANON_KEY")
		cfg.Auth.Timeout = 15 * time.Second
		cfg.App.BaseURL = getEnvOr("APP_BASE_URL", "https://selectiveprep.com.au")
		cfg.App.TempAccessHours = 24
		cfg.App.PendingAgeHours = 24
		cfg.App.SweepEnabled = getEnvOr("SWEEP_ENABLED", "true") == "true"
		cfg.App.SweepInterval = 24 * time.Hour
		cfg.Server.Port = getEnvOr("SERVER_PORT", "8080")
		cfg.ShutdownTimeout = 10 * time.Second

		return cfg, nil
	}

	// Process any ${ENV_VAR} syntax in the config values
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			envValue := os.Getenv(envVar)
			if envValue != "" {
				v.Set(key, envValue)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Helper function to get environment variable with default value
func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
