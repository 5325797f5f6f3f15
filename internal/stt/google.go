package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"
	. "github.com/roelfdiedericks/goscribe/internal/logging"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"
)

// GoogleProvider implements STT using Google Cloud Speech-to-Text API.
type GoogleProvider struct {
	config   GoogleConfig
	language string
	service  *speech.Service
}

// NewGoogleProvider creates a new Google Cloud STT provider.
// Without an API key or credentials file, application default credentials are used.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig, lang string) (*GoogleProvider, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	if cfg.Model == "" {
		cfg.Model = "default"
	}

	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := speech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("stt: create google speech client: %w", err)
	}

	L_info("stt: google provider initialized", "language", lang, "model", cfg.Model)

	return &GoogleProvider{
		config:   cfg,
		language: lang,
		service:  service,
	}, nil
}

// audioParams describes the encoding of a chunk as Google expects it.
type audioParams struct {
	encoding   string
	sampleRate int64
	channels   int64
}

// detectAudioParams sniffs the container and, for WAV, reads rate and channels from the header.
func detectAudioParams(data []byte) audioParams {
	mtype := mimetype.Detect(data)

	switch {
	case mtype.Is("audio/wav"):
		params := audioParams{encoding: "LINEAR16"}
		dec := wav.NewDecoder(bytes.NewReader(data))
		dec.ReadInfo()
		if dec.Err() == nil {
			params.sampleRate = int64(dec.SampleRate)
			params.channels = int64(dec.NumChans)
		}
		return params
	case mtype.Is("audio/flac"):
		// Let Google detect for FLAC
		return audioParams{encoding: "FLAC"}
	case mtype.Is("audio/ogg"):
		return audioParams{encoding: "OGG_OPUS", sampleRate: 48000}
	default:
		L_debug("stt: unrecognized audio container", "mime", mtype.String())
		return audioParams{encoding: "ENCODING_UNSPECIFIED"}
	}
}

// Transcribe converts an audio file to text using Google Cloud Speech-to-Text.
func (g *GoogleProvider) Transcribe(ctx context.Context, filePath string) (string, error) {
	L_debug("stt: google transcribing", "file", filePath)

	audioData, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read audio file: %w", err)
	}

	params := detectAudioParams(audioData)

	config := &speech.RecognitionConfig{
		Encoding:                   params.encoding,
		LanguageCode:               g.language,
		Model:                      g.config.Model,
		EnableAutomaticPunctuation: g.config.Punctuation,
	}
	if params.sampleRate > 0 {
		config.SampleRateHertz = params.sampleRate
	}
	if params.channels > 1 {
		config.AudioChannelCount = params.channels
	}

	req := &speech.RecognizeRequest{
		Config: config,
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audioData),
		},
	}

	L_debug("stt: sending to google", "encoding", params.encoding, "sampleRate", params.sampleRate, "language", g.language)

	resp, err := g.service.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			L_error("stt: google request failed", "status", apiErr.Code, "message", apiErr.Message)
			return "", fmt.Errorf("%w: google API error %d: %s", ErrServiceUnavailable, apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	// Concatenate the best alternative of every result
	var transcripts []string
	for _, r := range resp.Results {
		if r != nil && len(r.Alternatives) > 0 && r.Alternatives[0] != nil {
			transcripts = append(transcripts, r.Alternatives[0].Transcript)
		}
	}
	if len(transcripts) == 0 {
		return "", ErrUnintelligible
	}

	transcript := strings.Join(transcripts, " ")
	L_debug("stt: google transcription complete", "length", len(transcript))

	return transcript, nil
}

// Name returns the provider name.
func (g *GoogleProvider) Name() string {
	return "google"
}

// Close releases any resources (none for HTTP client).
func (g *GoogleProvider) Close() error {
	return nil
}
