package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-gemini-key")
	t.Setenv("SESSION_SIGNING_KEY", "test-signing-key")
}

func TestNewFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv failed: %v", err)
	}

	if cfg.CompletionProvider != ProviderGemini {
		t.Errorf("Expected default provider %q, got %q", ProviderGemini, cfg.CompletionProvider)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected default HTTP addr ':8080', got %q", cfg.HTTPAddr)
	}
	if cfg.SourcingTimeout != 45*time.Second {
		t.Errorf("Expected default sourcing timeout 45s, got %v", cfg.SourcingTimeout)
	}
}

func TestNewFromEnv_MissingGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SESSION_SIGNING_KEY", "test-signing-key")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
	}
}

func TestNewFromEnv_AnthropicProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COMPLETION_PROVIDER", ProviderAnthropic)
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("Expected an error for missing ANTHROPIC_API_KEY, got nil")
	}

	t.Setenv("ANTHROPIC_API_KEY", "test-anthropic-key")
	cfg, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv failed: %v", err)
	}
	if cfg.CompletionProvider != ProviderAnthropic {
		t.Errorf("Expected provider %q, got %q", ProviderAnthropic, cfg.CompletionProvider)
	}
}

func TestNewFromEnv_InvalidTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOURCING_TIMEOUT_SECONDS", "zero")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("Expected an error for invalid SOURCING_TIMEOUT_SECONDS, got nil")
	}
}
