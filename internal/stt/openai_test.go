package stt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type whisperCall struct {
	path     string
	auth     string
	model    string
	language string
}

func newWhisperServer(t *testing.T, status int, body string, call *whisperCall) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if call != nil {
			call.path = r.URL.Path
			call.auth = r.Header.Get("Authorization")
			call.model = r.FormValue("model")
			call.language = r.FormValue("language")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func TestOpenAITranscribeSuccess(t *testing.T) {
	var call whisperCall
	baseURL := newWhisperServer(t, http.StatusOK, `{"text":" ciao "}`, &call)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: baseURL}, "it-IT")
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}

	text, err := p.Transcribe(context.Background(), writeChunk(t, 16000))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "ciao" {
		t.Errorf("text = %q, want %q", text, "ciao")
	}
	if call.path != "/v1/audio/transcriptions" {
		t.Errorf("path = %q", call.path)
	}
	if call.auth != "Bearer sk-test" {
		t.Errorf("authorization = %q", call.auth)
	}
	if call.model != "whisper-1" {
		t.Errorf("model = %q, want whisper-1", call.model)
	}
	if call.language != "it" {
		t.Errorf("language = %q, want it", call.language)
	}
}

func TestOpenAITranscribeEmptyText(t *testing.T) {
	baseURL := newWhisperServer(t, http.StatusOK, `{"text":""}`, nil)
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: baseURL}, "it-IT")
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Transcribe(context.Background(), writeChunk(t, 16000))
	if !errors.Is(err, ErrUnintelligible) {
		t.Errorf("error = %v, want ErrUnintelligible", err)
	}
}

func TestOpenAITranscribeAPIError(t *testing.T) {
	baseURL := newWhisperServer(t, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`, nil)
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-bad", BaseURL: baseURL}, "it-IT")
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Transcribe(context.Background(), writeChunk(t, 16000))
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}

func TestGroqUsesConfiguredModel(t *testing.T) {
	var call whisperCall
	baseURL := newWhisperServer(t, http.StatusOK, `{"text":"buongiorno"}`, &call)

	p, err := NewGroqProvider(GroqConfig{APIKey: "gsk-test", BaseURL: baseURL}, "it-IT")
	if err != nil {
		t.Fatalf("NewGroqProvider failed: %v", err)
	}
	if p.Name() != "groq" {
		t.Errorf("Name = %q, want groq", p.Name())
	}

	text, err := p.Transcribe(context.Background(), writeChunk(t, 16000))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "buongiorno" || call.model != "whisper-large-v3" {
		t.Errorf("text = %q model = %q", text, call.model)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{"unknown provider", Config{Provider: "vosk"}, "", true},
		{"openai without key", Config{Provider: "openai"}, "", true},
		{"groq without key", Config{Provider: "groq"}, "", true},
		{"openai", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "k"}}, "openai", false},
		{"google with key", Config{Provider: "google", Google: GoogleConfig{APIKey: "k"}}, "google", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				defer p.Close()
				if p.Name() != tt.wantName {
					t.Errorf("Name = %q, want %q", p.Name(), tt.wantName)
				}
			}
		})
	}
}

func TestBaseLanguage(t *testing.T) {
	tests := map[string]string{
		"it-IT": "it",
		"en-US": "en",
		"pt":    "pt",
		"!!":    "",
	}
	for in, want := range tests {
		if got := baseLanguage(in); got != want {
			t.Errorf("baseLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
