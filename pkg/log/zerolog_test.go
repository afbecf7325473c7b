package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf))

	l.Info("published",
		String("name", "a/b.bin"),
		Uint64("size", 42),
		Duration("took", time.Millisecond),
		Err(errors.New("boom")),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got["message"] != "published" {
		t.Errorf("message = %v, want published", got["message"])
	}
	if got["name"] != "a/b.bin" {
		t.Errorf("name = %v, want a/b.bin", got["name"])
	}
	if got["size"] != float64(42) {
		t.Errorf("size = %v, want 42", got["size"])
	}
	if got["error"] != "boom" {
		t.Errorf("error = %v, want boom", got["error"])
	}
}

func TestZerologAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf)).With(String("session", "s1"))

	l.Warn("checksum mismatch")

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got["session"] != "s1" {
		t.Errorf("session = %v, want s1", got["session"])
	}
	if got["level"] != "warn" {
		t.Errorf("level = %v, want warn", got["level"])
	}
}
