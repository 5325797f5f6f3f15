package audio

import (
	"math"

	. "github.com/roelfdiedericks/goscribe/internal/logging"
)

// Default silence detection parameters.
const (
	DefaultMinSilenceMs  = 500
	DefaultMarginDB      = 16
	DefaultKeepSilenceMs = 100
	DefaultSeekStepMs    = 1
)

// SilenceOptions controls silence detection.
type SilenceOptions struct {
	MinSilenceMs  int     // Minimum silence length that splits the track
	ThresholdDBFS float64 // Windows at or below this level are silent
	KeepSilenceMs int     // Silence kept on each side of a segment
	SeekStepMs    int     // Step between tested windows
}

// Range is a [Start, End) interval in milliseconds.
type Range struct {
	Start int
	End   int
}

// energy holds prefix sums of squared samples per frame for O(1) window RMS.
type energy struct {
	track  *Track
	prefix []uint64
}

func newEnergy(t *Track) *energy {
	frames := t.Frames()
	prefix := make([]uint64, frames+1)
	for f := 0; f < frames; f++ {
		var sum uint64
		for c := 0; c < t.Channels; c++ {
			v := int64(t.Samples[f*t.Channels+c])
			sum += uint64(v * v)
		}
		prefix[f+1] = prefix[f] + sum
	}
	return &energy{track: t, prefix: prefix}
}

// rms returns the RMS of the window [startMs, endMs), truncated to a whole
// sample value like the track level it is compared against.
func (e *energy) rms(startMs, endMs int) float64 {
	a, b := e.track.frameAt(startMs), e.track.frameAt(endMs)
	if b <= a {
		return 0
	}
	n := float64((b - a) * e.track.Channels)
	return math.Floor(math.Sqrt(float64(e.prefix[b]-e.prefix[a]) / n))
}

// DetectSilence returns the silent ranges of the track.
func DetectSilence(t *Track, opts SilenceOptions) []Range {
	opts = opts.withDefaults()
	length := t.DurationMs()
	if length < opts.MinSilenceMs {
		return nil
	}

	threshold := dbToAmplitude(opts.ThresholdDBFS)
	e := newEnergy(t)

	lastStart := length - opts.MinSilenceMs
	var starts []int
	test := func(i int) {
		if e.rms(i, i+opts.MinSilenceMs) <= threshold {
			starts = append(starts, i)
		}
	}
	for i := 0; i <= lastStart; i += opts.SeekStepMs {
		test(i)
	}
	if lastStart%opts.SeekStepMs != 0 {
		test(lastStart)
	}
	if len(starts) == 0 {
		return nil
	}

	var ranges []Range
	prev := starts[0]
	rangeStart := prev
	for _, s := range starts[1:] {
		continuous := s == prev+opts.SeekStepMs
		hasGap := s > prev+opts.MinSilenceMs
		if !continuous && hasGap {
			ranges = append(ranges, Range{Start: rangeStart, End: prev + opts.MinSilenceMs})
			rangeStart = s
		}
		prev = s
	}
	ranges = append(ranges, Range{Start: rangeStart, End: prev + opts.MinSilenceMs})
	return ranges
}

// DetectNonsilent returns the ranges between silent ranges.
func DetectNonsilent(t *Track, opts SilenceOptions) []Range {
	length := t.DurationMs()
	silent := DetectSilence(t, opts)
	if len(silent) == 0 {
		return []Range{{Start: 0, End: length}}
	}
	if silent[0].Start == 0 && silent[0].End == length {
		return nil
	}

	var ranges []Range
	prevEnd := 0
	for _, r := range silent {
		ranges = append(ranges, Range{Start: prevEnd, End: r.Start})
		prevEnd = r.End
	}
	if silent[len(silent)-1].End != length {
		ranges = append(ranges, Range{Start: prevEnd, End: length})
	}
	if ranges[0].Start == 0 && ranges[0].End == 0 {
		ranges = ranges[1:]
	}
	return ranges
}

// SplitOnSilence splits the track into segments separated by silence.
// Each segment keeps up to KeepSilenceMs of the surrounding silence; when
// two neighbours would overlap they are split at the midpoint.
func SplitOnSilence(t *Track, opts SilenceOptions) []Segment {
	if t.Frames() == 0 {
		return nil
	}
	opts = opts.withDefaults()

	nonsilent := DetectNonsilent(t, opts)
	ranges := make([]Range, len(nonsilent))
	for i, r := range nonsilent {
		ranges[i] = Range{Start: r.Start - opts.KeepSilenceMs, End: r.End + opts.KeepSilenceMs}
	}
	for i := 0; i+1 < len(ranges); i++ {
		if ranges[i+1].Start < ranges[i].End {
			mid := (ranges[i].End + ranges[i+1].Start) / 2
			ranges[i].End = mid
			ranges[i+1].Start = mid
		}
	}

	length := t.DurationMs()
	segments := make([]Segment, 0, len(ranges))
	for _, r := range ranges {
		start := max(r.Start, 0)
		end := min(r.End, length)
		if end <= start {
			continue
		}
		segments = append(segments, Segment{
			Track: Track{
				Samples:    t.Slice(start, end),
				SampleRate: t.SampleRate,
				Channels:   t.Channels,
			},
			StartMs: start,
			EndMs:   end,
		})
	}

	L_debug("audio: split on silence", "segments", len(segments), "threshold", opts.ThresholdDBFS, "minSilence", opts.MinSilenceMs)
	return segments
}

func (o SilenceOptions) withDefaults() SilenceOptions {
	if o.MinSilenceMs <= 0 {
		o.MinSilenceMs = DefaultMinSilenceMs
	}
	if o.SeekStepMs <= 0 {
		o.SeekStepMs = DefaultSeekStepMs
	}
	if o.KeepSilenceMs < 0 {
		o.KeepSilenceMs = 0
	}
	return o
}
