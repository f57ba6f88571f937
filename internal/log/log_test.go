package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelWarn)

	Debug("hidden")
	Info("hidden too")
	Warn("shown", "schedule", "week.json")
	Error("failed", errors.New("boom"), "path", "/tmp/a b")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("lower levels leaked: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown schedule=week.json") {
		t.Fatalf("missing warn line: %q", out)
	}
	if !strings.Contains(out, `[ERROR] failed err=boom path="/tmp/a b"`) {
		t.Fatalf("missing error line: %q", out)
	}
}

func TestFormatKVsDropsMalformedPairs(t *testing.T) {
	if got := formatKVs("a", 1, 2, "b", "odd"); got != " a=1" {
		t.Fatalf("formatKVs() = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": LevelDebug, "": LevelInfo, "Warning": LevelWarn, "ERROR": LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
