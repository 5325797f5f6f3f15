package audio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	. "github.com/roelfdiedericks/goscribe/internal/logging"
	"github.com/roelfdiedericks/goscribe/internal/paths"
	"github.com/zeozeozeo/gomplerate"
)

// Default export parameters.
const (
	DefaultPaddingMs   = 10
	DefaultBitrateKbps = 192 // Nominal; 16-bit PCM WAV ignores it

	bitsPerSample = 16
)

// ExportOptions controls how segments are written to disk.
// The zero value pads nothing and keeps the segment's rate and channels.
type ExportOptions struct {
	PaddingMs   int  // Silence added before and after each segment
	BitrateKbps int  // Nominal bitrate; PCM WAV has none, so it is only logged
	SampleRate  int  // Downsample to this rate when lower than the source; 0 keeps it
	Mono        bool // Average channels into one
}

// Export pads the segment and writes it as 16-bit PCM WAV to path, creating
// the parent directory and overwriting any existing file. Rate and channel
// count follow the source unless SampleRate or Mono ask otherwise.
func Export(seg Segment, path string, opts ExportOptions) (string, error) {
	if err := paths.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}

	padded := seg.Pad(opts.PaddingMs)
	samples := padded.Samples
	channels := padded.Channels
	if opts.Mono && channels > 1 {
		samples = toMono(samples, channels)
		channels = 1
	}

	rate := padded.SampleRate
	if opts.SampleRate > 0 && opts.SampleRate < rate {
		resampled, err := resampleInt16(samples, channels, rate, opts.SampleRate)
		if err != nil {
			L_warn("audio: resampler creation failed, keeping source rate", "error", err)
		} else {
			samples = resampled
			rate = opts.SampleRate
		}
	}

	if err := WriteWAV(path, samples, rate, channels); err != nil {
		return "", err
	}

	L_debug("audio: chunk exported", "path", path, "sampleRate", rate, "channels", channels,
		"samples", len(samples), "bitrateKbps", opts.BitrateKbps)
	return path, nil
}

// WriteWAV writes interleaved 16-bit samples to a PCM WAV file.
func WriteWAV(path string, samples []int16, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitsPerSample, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitsPerSample,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav file: %w", err)
	}
	return nil
}

// toMono converts multi-channel audio to mono by averaging channels.
func toMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}

	mono := make([]int16, len(samples)/channels)
	for i := 0; i < len(mono); i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		mono[i] = int16(sum / int32(channels)) // #nosec G115 - safe: channels is small (1-8)
	}
	return mono
}

// resampleInt16 converts interleaved audio from one sample rate to another using gomplerate.
func resampleInt16(samples []int16, channels, fromRate, toRate int) ([]int16, error) {
	if fromRate == toRate || len(samples) == 0 {
		return samples, nil
	}

	resampler, err := gomplerate.NewResampler(channels, fromRate, toRate)
	if err != nil {
		return nil, err
	}

	return resampler.ResampleInt16(samples), nil
}
