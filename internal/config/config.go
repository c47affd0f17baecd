// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PivotLanguageCode is the common intermediate language every translation
// passes through.
const PivotLanguageCode = "en"

// Config holds all application configuration.
type Config struct {
	Port     string
	DBPath   string
	AudioDir string

	// Identity lookup (content service).
	ContentDomainURL        string
	ContentAuthenticatePath string
	IdentityRequestTimeout  time.Duration

	// External engine credentials.
	OpenAIAPIKey string
	OpenAIModel  string
	GoogleAPIKey string

	// Pipeline behavior.
	ConfidenceThreshold float64
	ChatHistoryWindow   int
	NativeLanguageCode  string // short code, e.g. "hi"
	NativeLanguageBCP   string // BCP-47 code, e.g. "hi-IN"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		DBPath:   getEnv("DB_PATH", "./data/saarthi.db"),
		AudioDir: getEnv("AUDIO_DIR", "./data/audio"),

		ContentDomainURL:        getEnv("CONTENT_DOMAIN_URL", ""),
		ContentAuthenticatePath: getEnv("CONTENT_AUTHENTICATE_ENDPOINT", "/api/users/authenticate"),
		IdentityRequestTimeout:  30 * time.Second,

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),

		ConfidenceThreshold: getEnvFloat("ASR_CONFIDENCE_THRESHOLD", 0.7),
		ChatHistoryWindow:   getEnvInt("CHAT_HISTORY_WINDOW", 4),
		NativeLanguageCode:  getEnv("NATIVE_LANGUAGE_CODE", "hi"),
		NativeLanguageBCP:   getEnv("NATIVE_LANGUAGE_BCP_CODE", "hi-IN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.AudioDir == "" {
		return fmt.Errorf("AUDIO_DIR cannot be empty")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("ASR_CONFIDENCE_THRESHOLD must be within [0,1]")
	}
	if c.ChatHistoryWindow <= 0 {
		return fmt.Errorf("CHAT_HISTORY_WINDOW must be > 0")
	}
	if c.NativeLanguageCode == "" || c.NativeLanguageBCP == "" {
		return fmt.Errorf("native language codes cannot be empty")
	}
	return nil
}

// AuthenticateURL returns the full identity lookup endpoint.
func (c *Config) AuthenticateURL() string {
	return strings.TrimRight(c.ContentDomainURL, "/") + c.ContentAuthenticatePath
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
