package stt

import (
	"context"
	"fmt"

	. "github.com/roelfdiedericks/goscribe/internal/logging"
	"golang.org/x/text/language"
)

// DefaultLanguage is the BCP-47 tag requested when none is configured.
const DefaultLanguage = "it-IT"

// Config holds STT configuration.
type Config struct {
	Provider string       `json:"provider" yaml:"provider" toml:"provider"` // "google", "openai", "groq"
	Language string       `json:"language" yaml:"language" toml:"language"` // BCP-47, e.g. "it-IT"
	Google   GoogleConfig `json:"google" yaml:"google" toml:"google"`       // Google Cloud STT
	OpenAI   OpenAIConfig `json:"openai" yaml:"openai" toml:"openai"`       // OpenAI Whisper API
	Groq     GroqConfig   `json:"groq" yaml:"groq" toml:"groq"`             // Groq Whisper API
}

// GoogleConfig holds Google Cloud STT configuration.
type GoogleConfig struct {
	APIKey          string `json:"apiKey" yaml:"apiKey" toml:"apiKey"`                            // Simple API key
	CredentialsFile string `json:"credentialsFile" yaml:"credentialsFile" toml:"credentialsFile"` // Service account JSON
	Endpoint        string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`                      // Override API base URL
	Model           string `json:"model" yaml:"model" toml:"model"`                               // "default", "latest_long", ...
	Punctuation     bool   `json:"punctuation" yaml:"punctuation" toml:"punctuation"`             // Off: transcript lines add their own period
}

// OpenAIConfig holds OpenAI Whisper configuration.
type OpenAIConfig struct {
	APIKey  string `json:"apiKey" yaml:"apiKey" toml:"apiKey"`
	Model   string `json:"model" yaml:"model" toml:"model"` // "whisper-1"
	BaseURL string `json:"baseURL" yaml:"baseURL" toml:"baseURL"`
}

// GroqConfig holds Groq Whisper configuration.
type GroqConfig struct {
	APIKey  string `json:"apiKey" yaml:"apiKey" toml:"apiKey"`
	Model   string `json:"model" yaml:"model" toml:"model"` // "whisper-large-v3", "whisper-large-v3-turbo"
	BaseURL string `json:"baseURL" yaml:"baseURL" toml:"baseURL"`
}

// New creates the provider selected by cfg.Provider.
func New(ctx context.Context, cfg Config) (Provider, error) {
	lang := cfg.Language
	if lang == "" {
		lang = DefaultLanguage
	}

	switch cfg.Provider {
	case "", "google":
		return NewGoogleProvider(ctx, cfg.Google, lang)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI, lang)
	case "groq":
		return NewGroqProvider(cfg.Groq, lang)
	default:
		return nil, fmt.Errorf("stt: unknown provider: %s", cfg.Provider)
	}
}

// baseLanguage returns the ISO-639 part of a BCP-47 tag ("it-IT" -> "it").
// Whisper-style APIs only accept the base language.
func baseLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		L_warn("stt: invalid language tag, letting the service detect it", "language", tag, "error", err)
		return ""
	}
	base, _ := t.Base()
	return base.String()
}
