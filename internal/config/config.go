package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds everything the process reads from the environment.
// It is loaded once at startup and passed down explicitly; nothing
// else in the codebase should call os.Getenv.
type Config struct {
	DatabaseURL string

	RazorpayKeyID     string
	RazorpayKeySecret string

	FirebaseCredentialsPath string

	// Optional
	RedisURL  string
	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
	Port      string
	Env       string
}

// Load reads the environment and validates required values eagerly,
// so a misconfigured process fails at startup rather than mid-request.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RazorpayKeyID:           os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:       os.Getenv("RAZORPAY_KEY_SECRET"),
		FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		RedisURL:                os.Getenv("REDIS_URL"),
		SMTPHost:                os.Getenv("SMTP_HOST"),
		SMTPPort:                os.Getenv("SMTP_PORT"),
		SMTPUser:                os.Getenv("SMTP_USER"),
		SMTPPass:                os.Getenv("SMTP_PASS"),
		EmailFrom:               os.Getenv("EMAIL_FROM"),
		Port:                    os.Getenv("PORT"),
		Env:                     os.Getenv("ENV"),
	}

	if cfg.FirebaseCredentialsPath == "" {
		cfg.FirebaseCredentialsPath = "./firebase-service-account.json"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.RazorpayKeyID == "" {
		missing = append(missing, "RAZORPAY_KEY_ID")
	}
	if cfg.RazorpayKeySecret == "" {
		missing = append(missing, "RAZORPAY_KEY_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// IsDevelopment reports whether the process runs in development mode.
// Error responses include details only in development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
