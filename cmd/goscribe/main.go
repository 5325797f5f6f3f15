package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/roelfdiedericks/goscribe/internal/config"
	. "github.com/roelfdiedericks/goscribe/internal/logging"
	"github.com/roelfdiedericks/goscribe/internal/paths"
	"github.com/roelfdiedericks/goscribe/internal/pipeline"
)

const version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	ConfigFile string `help:"Config file (json, yaml or toml)" short:"c" name:"config"`
	Debug      bool   `help:"Enable debug logging"`
	LogFormat  string `help:"Log format: text, json or logfmt" name:"log-format"`
}

type CLI struct {
	Globals

	Transcribe TranscribeCmd `cmd:"" default:"withargs" help:"Split an audio file on silence and transcribe each chunk"`
	Config     ConfigCmd     `cmd:"" help:"Manage the configuration file"`
	Version    VersionCmd    `cmd:"" help:"Show version"`
}

// TranscribeCmd is the default command.
type TranscribeCmd struct {
	Input      string `arg:"" optional:"" help:"Audio file (.wav or .aac)"`
	MinSilence int    `help:"Minimum silence length in ms" name:"min-silence"`
	Margin     *int   `help:"Silence threshold in dB below the track loudness"`
	Language   string `help:"BCP-47 language tag, e.g. it-IT"`
	Provider   string `help:"Recognition service: google, openai or groq"`
	OutputDir  string `help:"Directory that receives the chunk folder" name:"output-dir"`
}

func (c *TranscribeCmd) Run(g *Globals) error {
	start := time.Now()

	cfg, err := setup(g)
	if err != nil {
		return err
	}

	overrides := config.Config{
		InputPath: c.Input,
		OutputDir: c.OutputDir,
	}
	overrides.Silence.MinSilenceLenMs = c.MinSilence
	overrides.STT.Language = c.Language
	overrides.STT.Provider = c.Provider
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return err
	}
	// 0 dB is a valid margin, so it can't go through the zero-skipping merge
	if c.Margin != nil {
		cfg.Silence.MarginDB = *c.Margin
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Println(res.TranscriptPath)
	L_elapsed(start, "goscribe: execution time",
		"chunks", res.Segments,
		"recognized", res.Recognized,
		"unintelligible", res.Unintelligible,
		"failed", res.Failed)
	return nil
}

type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write the default configuration"`
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration"`
}

type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" help:"Target file (default ~/.goscribe/goscribe.json)"`
	Force bool   `help:"Replace an existing file, keeping a .bak copy"`
}

func (c *ConfigInitCmd) Run(g *Globals) error {
	initLogging(g, config.Default())

	path := c.Path
	if path == "" {
		path = g.ConfigFile
	}
	if path == "" {
		def, err := paths.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = def
	}
	path, err := paths.ExpandTilde(path)
	if err != nil {
		return err
	}

	if err := config.WriteFile(path, config.Default(), c.Force); err != nil {
		return err
	}
	L_info("config: written", "path", path)
	return nil
}

type ConfigShowCmd struct {
	Format string `help:"Output format" enum:"json,yaml,toml" default:"json"`
}

func (c *ConfigShowCmd) Run(g *Globals) error {
	cfg, err := setup(g)
	if err != nil {
		return err
	}
	return config.Encode(os.Stdout, c.Format, cfg.Masked())
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("goscribe %s\n", version)
	return nil
}

// setup loads the configuration and configures logging from it.
func setup(g *Globals) (*config.Config, error) {
	cfg, path, err := config.Load(g.ConfigFile)
	if err != nil {
		return nil, err
	}
	initLogging(g, cfg)
	if path != "" {
		L_debug("config: using file", "path", path)
	}
	return cfg, nil
}

func initLogging(g *Globals, cfg *config.Config) {
	level, err := ParseLevel(cfg.Logging.Level)
	if err != nil {
		L_warn("config: %v, using info", err)
	}
	if g.Debug {
		level = LevelDebug
	}
	format := cfg.Logging.Format
	if g.LogFormat != "" {
		format = g.LogFormat
	}
	Init(&Options{
		Level:      level,
		ShowCaller: g.Debug,
		Format:     format,
	})
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("goscribe"),
		kong.Description("Split a recording on silence and transcribe each chunk."),
		kong.UsageOnError(),
	)

	if err := kctx.Run(&cli.Globals); err != nil {
		L_fatal("goscribe: %v", err)
	}
}
