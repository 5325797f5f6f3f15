package stt

import (
	"fmt"

	. "github.com/roelfdiedericks/goscribe/internal/logging"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// NewGroqProvider creates a Whisper provider backed by Groq's OpenAI-compatible API.
func NewGroqProvider(cfg GroqConfig, lang string) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key not configured")
	}

	model := cfg.Model
	if model == "" {
		model = "whisper-large-v3"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = groqBaseURL
	}

	p := newWhisperProvider("groq", cfg.APIKey, baseURL, model, lang)
	L_info("stt: groq provider initialized", "model", model)
	return p, nil
}
