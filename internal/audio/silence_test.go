package audio

import (
	"math"
	"testing"
)

// square returns ms milliseconds of a ±amp square wave.
func square(ms, rate, channels int, amp int16) []int16 {
	frames := ms * rate / 1000
	out := make([]int16, frames*channels)
	for f := 0; f < frames; f++ {
		v := amp
		if (f/20)%2 == 1 {
			v = -amp
		}
		for c := 0; c < channels; c++ {
			out[f*channels+c] = v
		}
	}
	return out
}

func concat(parts ...[]int16) []int16 {
	var out []int16
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func within(got, want, tol int) bool {
	d := got - want
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func splitDefaults(t *Track) []Segment {
	return SplitOnSilence(t, SilenceOptions{
		MinSilenceMs:  DefaultMinSilenceMs,
		ThresholdDBFS: t.DBFS() - DefaultMarginDB,
		KeepSilenceMs: DefaultKeepSilenceMs,
		SeekStepMs:    DefaultSeekStepMs,
	})
}

func TestDBFS(t *testing.T) {
	silent := &Track{Samples: make([]int16, 1600), SampleRate: 16000, Channels: 1}
	if !math.IsInf(silent.DBFS(), -1) {
		t.Errorf("silent DBFS = %v, want -Inf", silent.DBFS())
	}

	full := &Track{Samples: square(100, 16000, 1, math.MaxInt16), SampleRate: 16000, Channels: 1}
	if got := full.DBFS(); got > 0 || got < -0.01 {
		t.Errorf("full scale DBFS = %v, want ~0", got)
	}
}

func TestDurationMs(t *testing.T) {
	tr := &Track{Samples: make([]int16, 2*44100*3/2), SampleRate: 44100, Channels: 2}
	if got := tr.DurationMs(); got != 1500 {
		t.Errorf("DurationMs = %d, want 1500", got)
	}
}

func TestSplitOnSilenceTwoUtterances(t *testing.T) {
	const rate = 16000
	tr := &Track{
		Samples:    concat(square(1000, rate, 1, 8000), make([]int16, rate), square(1000, rate, 1, 8000)),
		SampleRate: rate,
		Channels:   1,
	}

	segs := splitDefaults(tr)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}

	if segs[0].StartMs != 0 || !within(segs[0].EndMs, 1100, 15) {
		t.Errorf("segment 1 = [%d, %d), want [0, ~1100)", segs[0].StartMs, segs[0].EndMs)
	}
	if !within(segs[1].StartMs, 1900, 15) || segs[1].EndMs != 3000 {
		t.Errorf("segment 2 = [%d, %d), want [~1900, 3000)", segs[1].StartMs, segs[1].EndMs)
	}

	for i, s := range segs {
		wantFrames := (s.EndMs - s.StartMs) * rate / 1000
		if !within(s.Frames(), wantFrames, rate/1000) {
			t.Errorf("segment %d has %d frames, want ~%d", i+1, s.Frames(), wantFrames)
		}
	}
}

func TestSplitOnSilenceStereo(t *testing.T) {
	const rate = 8000
	tr := &Track{
		Samples:    concat(square(800, rate, 2, 6000), make([]int16, 2*rate), square(800, rate, 2, 6000)),
		SampleRate: rate,
		Channels:   2,
	}

	segs := splitDefaults(tr)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	for _, s := range segs {
		if s.Channels != 2 || len(s.Samples)%2 != 0 {
			t.Errorf("segment lost channel layout: channels=%d samples=%d", s.Channels, len(s.Samples))
		}
	}
}

func TestSplitOnSilenceSilentTrack(t *testing.T) {
	tr := &Track{Samples: make([]int16, 2*16000), SampleRate: 16000, Channels: 1}
	if segs := splitDefaults(tr); len(segs) != 0 {
		t.Errorf("silent track produced %d segments, want 0", len(segs))
	}
}

func TestSplitOnSilenceEmptyTrack(t *testing.T) {
	tr := &Track{SampleRate: 16000, Channels: 1}
	if segs := splitDefaults(tr); len(segs) != 0 {
		t.Errorf("empty track produced %d segments, want 0", len(segs))
	}
}

func TestSplitOnSilenceNoSilence(t *testing.T) {
	tr := &Track{Samples: square(2000, 16000, 1, 5000), SampleRate: 16000, Channels: 1}
	segs := splitDefaults(tr)
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].StartMs != 0 || segs[0].EndMs != 2000 {
		t.Errorf("segment = [%d, %d), want [0, 2000)", segs[0].StartMs, segs[0].EndMs)
	}
}

func TestSplitOnSilenceShorterThanWindow(t *testing.T) {
	tr := &Track{Samples: make([]int16, 300*16), SampleRate: 16000, Channels: 1}
	segs := splitDefaults(tr)
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1 (track shorter than min silence)", len(segs))
	}
}

func TestSplitOnSilenceMidpoint(t *testing.T) {
	const rate = 16000
	tr := &Track{
		Samples:    concat(square(1000, rate, 1, 8000), make([]int16, 600*rate/1000), square(1000, rate, 1, 8000)),
		SampleRate: rate,
		Channels:   1,
	}

	segs := SplitOnSilence(tr, SilenceOptions{
		MinSilenceMs:  500,
		ThresholdDBFS: tr.DBFS() - 16,
		KeepSilenceMs: 400,
	})
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].EndMs != segs[1].StartMs {
		t.Errorf("overlapping neighbours not split at midpoint: %d != %d", segs[0].EndMs, segs[1].StartMs)
	}
	if !within(segs[0].EndMs, 1300, 15) {
		t.Errorf("midpoint = %d, want ~1300", segs[0].EndMs)
	}
}

func TestDetectSilenceSeekStep(t *testing.T) {
	const rate = 16000
	tr := &Track{
		Samples:    concat(square(1000, rate, 1, 8000), make([]int16, rate), square(1000, rate, 1, 8000)),
		SampleRate: rate,
		Channels:   1,
	}

	ranges := DetectSilence(tr, SilenceOptions{MinSilenceMs: 500, ThresholdDBFS: tr.DBFS() - 16, SeekStepMs: 7})
	if len(ranges) != 1 {
		t.Fatalf("got %d silent ranges, want 1", len(ranges))
	}
	if !within(ranges[0].Start, 1000, 15) || !within(ranges[0].End, 2000, 15) {
		t.Errorf("silent range = %+v, want ~[1000, 2000)", ranges[0])
	}
}

func TestDetectSilenceTruncatesRMS(t *testing.T) {
	// Alternating 1000/1001 has an RMS of about 1000.5, which truncates to 1000.
	samples := make([]int16, 8000)
	for i := range samples {
		samples[i] = 1000 + int16(i%2)
	}
	tr := &Track{Samples: samples, SampleRate: 8000, Channels: 1}

	if got := tr.RMS(); got != 1000 {
		t.Errorf("RMS = %v, want 1000", got)
	}

	ranges := DetectSilence(tr, SilenceOptions{
		MinSilenceMs:  500,
		ThresholdDBFS: 20 * math.Log10(1000.2/maxAmplitude),
		SeekStepMs:    1,
	})
	if len(ranges) != 1 || ranges[0] != (Range{Start: 0, End: 1000}) {
		t.Errorf("ranges = %+v, want [{0 1000}]", ranges)
	}
}

func TestPad(t *testing.T) {
	seg := Segment{Track: Track{Samples: square(100, 16000, 2, 1000), SampleRate: 16000, Channels: 2}}
	padded := seg.Pad(10)

	if got, want := padded.Frames(), seg.Frames()+2*160; got != want {
		t.Fatalf("padded frames = %d, want %d", got, want)
	}
	for i := 0; i < 320; i++ {
		if padded.Samples[i] != 0 || padded.Samples[len(padded.Samples)-1-i] != 0 {
			t.Fatalf("padding is not silent at %d", i)
		}
	}
	if len(seg.Samples) != 100*16*2 {
		t.Errorf("Pad modified the source segment")
	}
}
