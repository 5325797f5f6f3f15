// Package audio decodes recordings, splits them on silence, and exports
// the resulting segments as WAV chunk files.
package audio

import (
	"math"
)

// maxAmplitude is the largest magnitude of a signed 16-bit sample.
const maxAmplitude = 32768.0

// Track is decoded 16-bit PCM audio. Samples are interleaved by channel.
type Track struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Segment is a contiguous, silence-bounded range of a Track.
// Its samples alias the parent track and must not be modified.
type Segment struct {
	Track
	StartMs int
	EndMs   int
}

// Frames returns the number of sample frames (one sample per channel).
func (t *Track) Frames() int {
	if t.Channels <= 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

// DurationMs returns the track length in whole milliseconds, rounded.
func (t *Track) DurationMs() int {
	if t.SampleRate <= 0 {
		return 0
	}
	return int(math.Round(float64(t.Frames()) * 1000 / float64(t.SampleRate)))
}

// frameAt converts a millisecond position into a frame index clamped to the track.
func (t *Track) frameAt(ms int) int {
	if ms <= 0 {
		return 0
	}
	f := int(float64(ms) * float64(t.SampleRate) / 1000)
	if n := t.Frames(); f > n {
		return n
	}
	return f
}

// Slice returns the samples between two millisecond positions.
func (t *Track) Slice(startMs, endMs int) []int16 {
	a, b := t.frameAt(startMs), t.frameAt(endMs)
	if b <= a {
		return nil
	}
	return t.Samples[a*t.Channels : b*t.Channels]
}

// RMS returns the root mean square of all samples, truncated to a whole
// sample value.
func (t *Track) RMS() float64 {
	if len(t.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range t.Samples {
		v := float64(s)
		sum += v * v
	}
	return math.Floor(math.Sqrt(sum / float64(len(t.Samples))))
}

// DBFS returns the loudness of the whole track relative to full scale.
// A fully silent track is -Inf.
func (t *Track) DBFS() float64 {
	rms := t.RMS()
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/maxAmplitude)
}

// dbToAmplitude converts a dBFS level into an RMS amplitude.
func dbToAmplitude(db float64) float64 {
	return math.Pow(10, db/20) * maxAmplitude
}

// Silence returns ms milliseconds of zero samples in the given layout.
func Silence(ms, sampleRate, channels int) []int16 {
	frames := int(float64(sampleRate) * float64(ms) / 1000)
	if frames <= 0 || channels <= 0 {
		return nil
	}
	return make([]int16, frames*channels)
}

// Pad returns a new segment with padMs of silence before and after.
func (s Segment) Pad(padMs int) Segment {
	silence := Silence(padMs, s.SampleRate, s.Channels)
	samples := make([]int16, 0, len(s.Samples)+2*len(silence))
	samples = append(samples, silence...)
	samples = append(samples, s.Samples...)
	samples = append(samples, silence...)

	out := s
	out.Samples = samples
	return out
}
