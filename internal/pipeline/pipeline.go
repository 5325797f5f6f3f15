// Package pipeline runs one transcription pass: decode the input, split it
// on silence, export each chunk, recognize it and write the transcript.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/roelfdiedericks/goscribe/internal/audio"
	"github.com/roelfdiedericks/goscribe/internal/config"
	. "github.com/roelfdiedericks/goscribe/internal/logging"
	"github.com/roelfdiedericks/goscribe/internal/paths"
	"github.com/roelfdiedericks/goscribe/internal/stt"
	"github.com/roelfdiedericks/goscribe/internal/transcript"
)

// Result summarizes a finished run.
type Result struct {
	RunID          string
	InputPath      string
	ChunkDir       string
	TranscriptPath string
	Segments       int
	Recognized     int // transcript lines written
	Unintelligible int // chunk files deleted
	Failed         int // service errors, chunk files kept
	Elapsed        time.Duration
}

// Run checks the input, creates the configured provider and processes the
// input with it. The format check comes first so an unsupported file is
// reported before any credentials are needed.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	input, err := paths.ResolveInput(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	if err := audio.CheckFormat(input); err != nil {
		return nil, err
	}

	provider, err := stt.New(ctx, cfg.STT)
	if err != nil {
		return nil, fmt.Errorf("create stt provider: %w", err)
	}
	defer provider.Close()

	return Process(ctx, cfg, provider)
}

// Process transcribes cfg.InputPath with provider.
//
// Outputs go to <outputDir>/audio_chunks_<stem>/: one chunk<N>.wav per
// segment and the transcript file, truncated at the start of the run.
// Unintelligible chunks are deleted and get no line. Chunks the service
// failed on are kept and get no line. Any other error aborts the run and
// leaves partial outputs in place.
func Process(ctx context.Context, cfg *config.Config, provider stt.Provider) (res *Result, err error) {
	start := time.Now()

	input, err := paths.ResolveInput(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	if err := audio.CheckFormat(input); err != nil {
		return nil, err
	}

	res = &Result{RunID: uuid.NewString(), InputPath: input}
	L_info("pipeline: starting", "run", res.RunID, "input", input, "provider", provider.Name())

	decoder := &audio.Decoder{FFmpegPath: cfg.FFmpegPath}
	track, err := decoder.Decode(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", input, err)
	}

	dbfs := track.DBFS()
	segments := audio.SplitOnSilence(track, cfg.SilenceOptions(dbfs))
	res.Segments = len(segments)
	L_info("pipeline: split on silence",
		"segments", len(segments),
		"durationMs", track.DurationMs(),
		"dBFS", fmt.Sprintf("%.2f", dbfs),
		"minSilenceMs", cfg.Silence.MinSilenceLenMs,
		"marginDb", cfg.Silence.MarginDB)

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	stem := paths.Stem(input)
	res.ChunkDir = paths.ChunkDir(outputDir, stem)
	if err := paths.EnsureDir(res.ChunkDir); err != nil {
		return nil, err
	}

	w, err := transcript.Create(filepath.Join(res.ChunkDir, paths.TranscriptName(stem, cfg.Silence.MinSilenceLenMs, cfg.Silence.MarginDB)))
	if err != nil {
		return nil, err
	}
	res.TranscriptPath = w.Path()
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	exportOpts := cfg.ExportOptions()
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		index := i + 1
		chunkPath := filepath.Join(res.ChunkDir, paths.ChunkName(index))
		L_info(fmt.Sprintf("pipeline: chunk %d/%d", index, len(segments)),
			"startMs", seg.StartMs, "endMs", seg.EndMs)

		if _, err := audio.Export(seg, chunkPath, exportOpts); err != nil {
			return res, fmt.Errorf("export chunk %d: %w", index, err)
		}

		text, err := provider.Transcribe(ctx, chunkPath)
		switch {
		case err == nil:
			if err := w.WriteLine(index, text); err != nil {
				return res, err
			}
			L_debug("pipeline: recognized", "chunk", index, "text", text)

		case errors.Is(err, stt.ErrUnintelligible):
			if err := os.Remove(chunkPath); err != nil {
				return res, fmt.Errorf("remove chunk %d: %w", index, err)
			}
			res.Unintelligible++
			L_info("pipeline: chunk not understood, removed", "chunk", index)

		case errors.Is(err, stt.ErrServiceUnavailable):
			res.Failed++
			L_warn("pipeline: recognition request failed, chunk kept", "chunk", index, "file", chunkPath, "error", err)

		default:
			return res, fmt.Errorf("transcribe chunk %d: %w", index, err)
		}
	}

	res.Recognized = w.Lines()
	res.Elapsed = time.Since(start)
	L_info("pipeline: done",
		"run", res.RunID,
		"transcript", res.TranscriptPath,
		"recognized", res.Recognized,
		"unintelligible", res.Unintelligible,
		"failed", res.Failed)
	return res, nil
}
