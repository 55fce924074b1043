// Package config loads service settings from the environment, .env files
// and an optional condo.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port string

	GeminiAPIKey    string
	GeminiModel     string
	ExtractTimeout  time.Duration
	ExtractAttempts int

	MaxConcurrentExtractions int
	CanonicalizeWorkers      int

	AllowedOrigins []string
	MaxUploadMB    int64

	DatabaseURL   string
	CacheMaxAge   time.Duration
	TelegramToken string
	WebhookURL    string

	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"PORT":                       "8000",
	"GEMINI_MODEL":               "gemini-2.5-pro",
	"EXTRACT_TIMEOUT":            "180s",
	"EXTRACT_ATTEMPTS":           3,
	"MAX_CONCURRENT_EXTRACTIONS": 4,
	"CANONICALIZE_WORKERS":       8,
	"ALLOWED_ORIGINS":            "https://processador-dados-frontend.vercel.app",
	"MAX_UPLOAD_MB":              32,
	"CACHE_MAX_AGE":              "720h",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "auto",
}

var keys = []string{
	"PORT", "GEMINI_API_KEY", "GEMINI_MODEL", "EXTRACT_TIMEOUT", "EXTRACT_ATTEMPTS",
	"MAX_CONCURRENT_EXTRACTIONS", "CANONICALIZE_WORKERS", "ALLOWED_ORIGINS", "MAX_UPLOAD_MB",
	"DATABASE_URL", "CACHE_MAX_AGE", "TELEGRAM_BOT_TOKEN", "WEBHOOK_URL", "LOG_LEVEL", "LOG_FORMAT",
}

// LoadEnvFiles loads .env then .env.local. Existing variables win.
func LoadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// Load reads configuration. configFile may be empty, in which case
// ./condo.yaml is used when present. The Gemini key is not validated here;
// callers that extract call RequireGemini.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("condo")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	c := &Config{
		Port:                     v.GetString("PORT"),
		GeminiAPIKey:             strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:              v.GetString("GEMINI_MODEL"),
		ExtractTimeout:           v.GetDuration("EXTRACT_TIMEOUT"),
		ExtractAttempts:          v.GetInt("EXTRACT_ATTEMPTS"),
		MaxConcurrentExtractions: v.GetInt("MAX_CONCURRENT_EXTRACTIONS"),
		CanonicalizeWorkers:      v.GetInt("CANONICALIZE_WORKERS"),
		AllowedOrigins:           splitList(v.GetString("ALLOWED_ORIGINS")),
		MaxUploadMB:              v.GetInt64("MAX_UPLOAD_MB"),
		DatabaseURL:              strings.TrimSpace(v.GetString("DATABASE_URL")),
		CacheMaxAge:              v.GetDuration("CACHE_MAX_AGE"),
		TelegramToken:            strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
		WebhookURL:               strings.TrimSpace(v.GetString("WEBHOOK_URL")),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		LogFormat:                v.GetString("LOG_FORMAT"),
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	var errs []error
	if c.ExtractTimeout <= 0 {
		errs = append(errs, errors.New("EXTRACT_TIMEOUT must be > 0"))
	}
	if c.ExtractAttempts < 1 {
		errs = append(errs, errors.New("EXTRACT_ATTEMPTS must be >= 1"))
	}
	if c.MaxConcurrentExtractions < 1 {
		errs = append(errs, errors.New("MAX_CONCURRENT_EXTRACTIONS must be >= 1"))
	}
	if c.CanonicalizeWorkers < 1 {
		errs = append(errs, errors.New("CANONICALIZE_WORKERS must be >= 1"))
	}
	if c.MaxUploadMB < 1 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be >= 1"))
	}
	return errors.Join(errs...)
}

// RequireGemini fails when no API key is configured.
func (c *Config) RequireGemini() error {
	if c.GeminiAPIKey == "" {
		return errors.New("missing required env GEMINI_API_KEY")
	}
	return nil
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
