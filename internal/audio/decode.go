package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	. "github.com/roelfdiedericks/goscribe/internal/logging"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// ErrUnsupportedFormat is returned for inputs whose extension is not decodable.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// SupportedExtensions lists the accepted input containers.
var SupportedExtensions = []string{".wav", ".aac"}

// CheckFormat returns ErrUnsupportedFormat unless path has a supported extension.
func CheckFormat(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return nil
		}
	}
	return fmt.Errorf("%w %q: currently only %s files are supported", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions, " and "))
}

// Decoder turns an input file into a Track.
type Decoder struct {
	// FFmpegPath is the ffmpeg binary used for non-WAV containers.
	FFmpegPath string
}

// Decode reads path into a Track using the default ffmpeg from PATH.
func Decode(ctx context.Context, path string) (*Track, error) {
	return (&Decoder{}).Decode(ctx, path)
}

// Decode reads path into a Track.
// WAV is decoded natively; AAC goes through ffmpeg into a temporary WAV.
func (d *Decoder) Decode(ctx context.Context, path string) (*Track, error) {
	if err := CheckFormat(path); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".wav" {
		L_debug("audio: decoding wav", "file", path)
		return ReadWAV(path)
	}

	L_debug("audio: decoding with ffmpeg", "file", path, "ext", ext)
	return d.decodeWithFFmpeg(ctx, path)
}

func (d *Decoder) ffmpeg() (string, error) {
	bin := d.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found (required for non-WAV input): %w", err)
	}
	return resolved, nil
}

// decodeWithFFmpeg converts the input to 16-bit PCM WAV, keeping its rate and channels.
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, inputPath string) (*Track, error) {
	bin, err := d.ffmpeg()
	if err != nil {
		return nil, err
	}

	tmpFile, err := os.CreateTemp("", "goscribe-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	// #nosec G204 - inputPath is resolved by the caller, not shell-interpreted
	cmd := exec.CommandContext(ctx, bin,
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		"-y",
		tmpPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		L_debug("audio: ffmpeg output", "output", string(output))
		return nil, fmt.Errorf("ffmpeg conversion failed: %w", err)
	}

	return ReadWAV(tmpPath)
}

// ReadWAV decodes a PCM WAV file into a Track, normalizing samples to 16 bits.
func ReadWAV(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("unsupported WAV encoding %d (only PCM is supported)", dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	rate := int(dec.SampleRate)
	if buf.Format != nil && buf.Format.SampleRate > 0 {
		rate = buf.Format.SampleRate
	}
	if channels <= 0 || rate <= 0 {
		return nil, fmt.Errorf("invalid WAV header: %d channels at %d Hz", channels, rate)
	}

	samples, err := toInt16(buf.Data, int(dec.BitDepth))
	if err != nil {
		return nil, err
	}

	L_debug("audio: wav decoded", "sampleRate", rate, "channels", channels, "bitDepth", dec.BitDepth, "frames", len(samples)/channels)

	return &Track{Samples: samples, SampleRate: rate, Channels: channels}, nil
}

// toInt16 scales decoded integer samples of the given bit depth to 16 bits.
func toInt16(data []int, bitDepth int) ([]int16, error) {
	out := make([]int16, len(data))
	switch bitDepth {
	case 8:
		for i, v := range data {
			out[i] = int16((v - 128) << 8) // #nosec G115 - 8-bit PCM is unsigned 0..255
		}
	case 16:
		for i, v := range data {
			out[i] = int16(v) // #nosec G115 - decoder already produced 16-bit values
		}
	case 24:
		for i, v := range data {
			out[i] = int16(v >> 8) // #nosec G115
		}
	case 32:
		for i, v := range data {
			out[i] = int16(v >> 16) // #nosec G115
		}
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
	return out, nil
}
