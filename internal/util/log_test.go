package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger("debug")
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger = NewLogger("invalid")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}

	logger = NewLogger("")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info for empty level, got %s", logger.GetLevel())
	}
}

func TestNewLoggerToPretty(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn:pretty")
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", logger.GetLevel())
	}
	logger.Warn().Str("step", "init-exchange").Msg("slow confirmation")
	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Fatalf("expected console output, got json: %s", out)
	}
	if !strings.Contains(out, "slow confirmation") {
		t.Fatalf("missing message in %s", out)
	}
}
