package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestModuleFieldInOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefault("realtime")
	log.SetOutput(&buf)

	log.Info("channel up")

	out := buf.String()
	if !strings.Contains(out, "channel up") {
		t.Fatalf("message missing from output: %s", out)
	}
	if !strings.Contains(out, "realtime") {
		t.Fatalf("module field missing from output: %s", out)
	}
}

func TestWithFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefault("api")
	log.SetOutput(&buf)

	log.WithField("path", "/api/config").WithField("status", 401).Warn("rejected")

	out := buf.String()
	for _, want := range []string{"path", "/api/config", "status", "401", "rejected"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %s", want, out)
		}
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefault("test")
	log.SetOutput(&buf)

	log.SetLevel("warn")
	log.Debug("hidden")
	log.Info("also hidden")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("suppressed levels leaked: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn level missing: %s", out)
	}
}
