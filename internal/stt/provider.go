// Package stt provides speech-to-text transcription for audio chunks.
package stt

import (
	"context"
	"errors"
)

// Recognition failures. Providers wrap one of these so callers can decide
// what to do with the chunk via errors.Is.
var (
	// ErrUnintelligible means the service answered but found no speech it could transcribe.
	ErrUnintelligible = errors.New("stt: could not understand audio")

	// ErrServiceUnavailable means the request failed or the service returned an error.
	ErrServiceUnavailable = errors.New("stt: could not request results")
)

// Provider is the interface for STT implementations.
type Provider interface {
	// Transcribe converts an audio file to text.
	// filePath should be an audio file (WAV, FLAC, OGG).
	Transcribe(ctx context.Context, filePath string) (string, error)

	// Name returns the provider name (e.g., "google", "openai")
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}
