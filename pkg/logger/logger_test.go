package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.InfoLevel,
		"bogus": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", false)

	log.Info().Msg("dropped")
	log.Warn().Str("id", "draft").Msg("kept")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "markdown-blog-api" {
		t.Errorf("Expected service field, got %v", entry["service"])
	}
	if entry["message"] != "kept" || entry["id"] != "draft" {
		t.Errorf("Unexpected entry %v", entry)
	}
}

func TestNewWithWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", true)

	log.Debug().Msg("console line")

	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("Expected console output, got JSON %q", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("console line")) {
		t.Errorf("Expected message in output, got %q", buf.String())
	}
}
