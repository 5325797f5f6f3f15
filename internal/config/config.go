package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roelfdiedericks/goscribe/internal/audio"
	. "github.com/roelfdiedericks/goscribe/internal/logging"
	"github.com/roelfdiedericks/goscribe/internal/paths"
	"github.com/roelfdiedericks/goscribe/internal/stt"
)

// DefaultInput is the recording transcribed when no input is given.
const DefaultInput = "registration-28-10-2022-15-09.aac"

// ErrInvalid is returned (wrapped) by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the goscribe configuration
type Config struct {
	InputPath  string        `json:"inputPath" yaml:"inputPath" toml:"inputPath"`
	OutputDir  string        `json:"outputDir" yaml:"outputDir" toml:"outputDir"`
	FFmpegPath string        `json:"ffmpegPath" yaml:"ffmpegPath" toml:"ffmpegPath"`
	Silence    SilenceConfig `json:"silence" yaml:"silence" toml:"silence"`
	Export     ExportConfig  `json:"export" yaml:"export" toml:"export"`
	STT        stt.Config    `json:"stt" yaml:"stt" toml:"stt"`
	Logging    LoggingConfig `json:"logging" yaml:"logging" toml:"logging"`
}

type SilenceConfig struct {
	MinSilenceLenMs int `json:"minSilenceLenMs" yaml:"minSilenceLenMs" toml:"minSilenceLenMs"`
	MarginDB        int `json:"marginDb" yaml:"marginDb" toml:"marginDb"` // below the track's dBFS
	KeepSilenceMs   int `json:"keepSilenceMs" yaml:"keepSilenceMs" toml:"keepSilenceMs"`
	SeekStepMs      int `json:"seekStepMs" yaml:"seekStepMs" toml:"seekStepMs"`
}

type ExportConfig struct {
	PaddingMs   int  `json:"paddingMs" yaml:"paddingMs" toml:"paddingMs"`
	BitrateKbps int  `json:"bitrateKbps" yaml:"bitrateKbps" toml:"bitrateKbps"` // nominal, WAV chunks are plain PCM
	SampleRate  int  `json:"sampleRate" yaml:"sampleRate" toml:"sampleRate"`    // 0 keeps the source rate
	Mono        bool `json:"mono" yaml:"mono" toml:"mono"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"` // text, json, logfmt
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InputPath:  DefaultInput,
		OutputDir:  ".",
		FFmpegPath: "ffmpeg",
		Silence: SilenceConfig{
			MinSilenceLenMs: audio.DefaultMinSilenceMs,
			MarginDB:        audio.DefaultMarginDB,
			KeepSilenceMs:   audio.DefaultKeepSilenceMs,
			SeekStepMs:      audio.DefaultSeekStepMs,
		},
		Export: ExportConfig{
			PaddingMs:   audio.DefaultPaddingMs,
			BitrateKbps: audio.DefaultBitrateKbps,
		},
		STT: stt.Config{
			Provider: "google",
			Language: stt.DefaultLanguage,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path, or the first one found by
// paths.ConfigPath when path is empty. A missing default file is not an
// error. File values replace the defaults key by key, then API keys missing
// from the file are taken from the environment (.env included).
func Load(path string) (*Config, string, error) {
	loadDotenv()

	if path == "" {
		found, err := paths.ConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = found
	} else {
		expanded, err := paths.ExpandTilde(path)
		if err != nil {
			return nil, "", err
		}
		path = expanded
	}

	// Decoding over the defaults keeps keys the file omits and honours
	// explicit zeros such as marginDb: 0
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := Decode(data, FormatOf(path), cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		L_debug("config: loaded", "path", path)
	} else {
		L_debug("config: no config file, using defaults")
	}

	cfg.applyEnv()

	return cfg, path, nil
}

// ApplyOverrides merges the non-zero fields of o over c.
func (c *Config) ApplyOverrides(o Config) error {
	if err := mergo.Merge(c, o, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to apply overrides: %w", err)
	}
	return nil
}

// Validate checks ranges and names that would otherwise fail mid-run.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.InputPath == "" {
		add("inputPath is empty")
	}
	if c.Silence.MinSilenceLenMs <= 0 {
		add("silence.minSilenceLenMs must be positive, got %d", c.Silence.MinSilenceLenMs)
	}
	if c.Silence.MarginDB < 0 {
		add("silence.marginDb must not be negative, got %d", c.Silence.MarginDB)
	}
	if c.Silence.KeepSilenceMs < 0 {
		add("silence.keepSilenceMs must not be negative, got %d", c.Silence.KeepSilenceMs)
	}
	if c.Silence.SeekStepMs <= 0 {
		add("silence.seekStepMs must be positive, got %d", c.Silence.SeekStepMs)
	}
	if c.Export.PaddingMs < 0 {
		add("export.paddingMs must not be negative, got %d", c.Export.PaddingMs)
	}
	if c.Export.BitrateKbps <= 0 {
		add("export.bitrateKbps must be positive, got %d", c.Export.BitrateKbps)
	}
	if c.Export.SampleRate < 0 {
		add("export.sampleRate must not be negative, got %d", c.Export.SampleRate)
	}
	if _, err := language.Parse(c.STT.Language); err != nil {
		add("stt.language %q is not a BCP-47 tag", c.STT.Language)
	}
	switch c.STT.Provider {
	case "google", "openai", "groq":
	default:
		add("stt.provider %q is not one of google, openai, groq", c.STT.Provider)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		add("logging.level: %v", err)
	}
	switch c.Logging.Format {
	case "", "text", "json", "logfmt":
	default:
		add("logging.format %q is not one of text, json, logfmt", c.Logging.Format)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// SilenceOptions converts the silence section for the segmenter, given the
// decoded track's loudness.
func (c *Config) SilenceOptions(trackDBFS float64) audio.SilenceOptions {
	return audio.SilenceOptions{
		MinSilenceMs:  c.Silence.MinSilenceLenMs,
		ThresholdDBFS: trackDBFS - float64(c.Silence.MarginDB),
		KeepSilenceMs: c.Silence.KeepSilenceMs,
		SeekStepMs:    c.Silence.SeekStepMs,
	}
}

// ExportOptions converts the export section for the chunk exporter.
func (c *Config) ExportOptions() audio.ExportOptions {
	return audio.ExportOptions{
		PaddingMs:   c.Export.PaddingMs,
		BitrateKbps: c.Export.BitrateKbps,
		SampleRate:  c.Export.SampleRate,
		Mono:        c.Export.Mono,
	}
}

// Masked returns a copy with API keys hidden, for display.
func (c *Config) Masked() *Config {
	m := *c
	m.STT.Google.APIKey = maskSecret(m.STT.Google.APIKey)
	m.STT.OpenAI.APIKey = maskSecret(m.STT.OpenAI.APIKey)
	m.STT.Groq.APIKey = maskSecret(m.STT.Groq.APIKey)
	return &m
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// FormatOf maps a file extension to json, yaml or toml. Unknown extensions
// are treated as JSON.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

// Decode parses data in the given format into cfg.
func Decode(data []byte, format string, cfg *Config) error {
	switch format {
	case "yaml":
		return yaml.Unmarshal(data, cfg)
	case "toml":
		return toml.Unmarshal(data, cfg)
	case "json":
		return json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unknown config format %q", format)
	}
}

// Encode writes cfg to w in the given format.
func Encode(w io.Writer, format string, cfg *Config) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(cfg)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unknown config format %q", format)
	}
}

// Marshal returns cfg encoded in the given format.
func Marshal(format string, cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, format, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// loadDotenv loads ./.env without overriding variables already set.
func loadDotenv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		L_warn("config: failed to load .env", "error", err)
	}
}

func (c *Config) applyEnv() {
	setFromEnv(&c.STT.Google.APIKey, "GOOGLE_API_KEY")
	setFromEnv(&c.STT.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setFromEnv(&c.STT.OpenAI.APIKey, "OPENAI_API_KEY")
	setFromEnv(&c.STT.Groq.APIKey, "GROQ_API_KEY")
}

func setFromEnv(dst *string, key string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
		L_trace("config: value taken from environment", "var", key)
	}
}
