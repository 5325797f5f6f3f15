package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"trace", LevelTrace, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLogMsgStyles(t *testing.T) {
	var buf bytes.Buffer
	Init(&Options{Level: LevelDebug, Format: "logfmt", Output: &buf})
	defer Init(nil)

	L_info("plain message")
	L_info("value is %d", 42)
	L_debug("structured", "chunk", 3)
	L_elapsed(time.Now(), "done")

	out := buf.String()
	for _, want := range []string{"plain message", "value is 42", "chunk=3", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(&Options{Level: LevelWarn, Output: &buf})
	defer Init(nil)

	L_info("hidden")
	L_warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level:\n%s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing:\n%s", out)
	}
}

func TestKeyValuesNotFormatted(t *testing.T) {
	var buf bytes.Buffer
	Init(&Options{Level: LevelInfo, Format: "logfmt", Output: &buf})
	defer Init(nil)

	L_info("pipeline: chunk 2/5", "startMs", 1900, "endMs", 3000)
	L_info("progress at 100% done", "file", "chunk1.wav")

	out := buf.String()
	for _, want := range []string{"chunk 2/5", "startMs=1900", "endMs=3000", "100% done", "file=chunk1.wav"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "%!") {
		t.Errorf("key/value call went through Sprintf:\n%s", out)
	}
}
