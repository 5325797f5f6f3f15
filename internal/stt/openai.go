package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	. "github.com/roelfdiedericks/goscribe/internal/logging"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements STT using an OpenAI-compatible Whisper API.
// Groq reuses it with a different base URL.
type OpenAIProvider struct {
	name     string
	model    string
	language string
	client   *openai.Client
}

// NewOpenAIProvider creates a new OpenAI Whisper STT provider.
func NewOpenAIProvider(cfg OpenAIConfig, lang string) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	p := newWhisperProvider("openai", cfg.APIKey, cfg.BaseURL, model, lang)
	L_info("stt: openai provider initialized", "model", model)
	return p, nil
}

func newWhisperProvider(name, apiKey, baseURL, model, lang string) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIProvider{
		name:     name,
		model:    model,
		language: baseLanguage(lang),
		client:   openai.NewClientWithConfig(clientConfig),
	}
}

// Transcribe converts an audio file to text using the Whisper transcription endpoint.
// An empty transcription is reported as ErrUnintelligible.
func (o *OpenAIProvider) Transcribe(ctx context.Context, filePath string) (string, error) {
	L_debug("stt: whisper transcribing", "provider", o.name, "file", filePath, "model", o.model)

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: filePath,
		Language: o.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			L_error("stt: whisper request failed", "provider", o.name, "status", apiErr.HTTPStatusCode, "message", apiErr.Message)
			return "", fmt.Errorf("%w: %s API error %d: %s", ErrServiceUnavailable, o.name, apiErr.HTTPStatusCode, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			L_error("stt: whisper request failed", "provider", o.name, "status", reqErr.HTTPStatusCode)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	result := strings.TrimSpace(resp.Text)
	if result == "" {
		return "", ErrUnintelligible
	}

	L_debug("stt: whisper transcription complete", "provider", o.name, "length", len(result))
	return result, nil
}

// Name returns the provider name.
func (o *OpenAIProvider) Name() string {
	return o.name
}

// Close releases any resources (none for HTTP client).
func (o *OpenAIProvider) Close() error {
	return nil
}
