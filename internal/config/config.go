package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names for the completion backend.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	HTTPAddr     string

	// Completion backend
	CompletionProvider string
	GeminiAPIKey       string
	AnthropicAPIKey    string
	SourcingTimeout    time.Duration

	// Session tagging
	SessionSigningKey string

	LogLevel string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "data/cookingwithklar.db"
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	provider := os.Getenv("COMPLETION_PROVIDER")
	if provider == "" {
		provider = ProviderGemini
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	switch provider {
	case ProviderGemini:
		if geminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderAnthropic:
		if anthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unknown COMPLETION_PROVIDER %q", provider)
	}

	signingKey := os.Getenv("SESSION_SIGNING_KEY")
	if signingKey == "" {
		return nil, fmt.Errorf("SESSION_SIGNING_KEY environment variable not set")
	}

	sourcingTimeout := 45 * time.Second
	if raw := os.Getenv("SOURCING_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid SOURCING_TIMEOUT_SECONDS %q", raw)
		}
		sourcingTimeout = time.Duration(secs) * time.Second
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		DatabasePath:       dbPath,
		HTTPAddr:           httpAddr,
		CompletionProvider: provider,
		GeminiAPIKey:       geminiKey,
		AnthropicAPIKey:    anthropicKey,
		SourcingTimeout:    sourcingTimeout,
		SessionSigningKey:  signingKey,
		LogLevel:           logLevel,
	}, nil
}
