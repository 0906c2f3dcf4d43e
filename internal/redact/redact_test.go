package redact

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestRedact_SingleField(t *testing.T) {
	r := New([]string{"password"}, "***", ";")

	got := r.Redact("name=bob;password=secret;")
	want := "name=bob;password=***;"
	if got != want {
		t.Errorf("Redact() = %q, want %q", got, want)
	}
}

func TestRedact_MultipleFields(t *testing.T) {
	r := New([]string{"email", "ssn", "password"}, "xxx", ";")

	msg := "name=alice;email=alice@example.com;ssn=123-45-6789;password=pw;ip=10.0.0.1;"
	got := r.Redact(msg)
	want := "name=alice;email=xxx;ssn=xxx;password=xxx;ip=10.0.0.1;"
	if got != want {
		t.Errorf("Redact() = %q, want %q", got, want)
	}
}

func TestRedact_FieldAbsent(t *testing.T) {
	r := New([]string{"password"}, "***", ";")

	msg := "name=bob;role=admin;"
	if got := r.Redact(msg); got != msg {
		t.Errorf("expected message without sensitive fields untouched, got %q", got)
	}
}

func TestRedact_DuplicateOccurrences(t *testing.T) {
	r := New([]string{"password"}, "***", ";")

	got := r.Redact("password=one;x=1;password=two;")
	want := "password=***;x=1;password=***;"
	if got != want {
		t.Errorf("Redact() = %q, want %q", got, want)
	}
}

func TestRedact_Idempotent(t *testing.T) {
	r := New([]string{"email", "password"}, "***", ";")

	once := r.Redact("email=a@b.c;password=hunter2;")
	twice := r.Redact(once)
	if once != twice {
		t.Errorf("redaction not idempotent: first %q, second %q", once, twice)
	}
}

func TestRedact_ValueStopsAtSeparator(t *testing.T) {
	// Non-greedy matching: only the value up to the next separator is
	// replaced, not everything to the last separator in the line.
	r := New([]string{"password"}, "***", ";")

	got := r.Redact("password=secret;email=a@b.c;")
	want := "password=***;email=a@b.c;"
	if got != want {
		t.Errorf("Redact() = %q, want %q", got, want)
	}
}

func TestRedact_CustomSeparator(t *testing.T) {
	r := New([]string{"phone"}, "[hidden]", "|")

	got := r.Redact("phone=555-0100|city=Paris|")
	want := "phone=[hidden]|city=Paris|"
	if got != want {
		t.Errorf("Redact() = %q, want %q", got, want)
	}
}

func TestRedact_NoFieldsConfigured(t *testing.T) {
	r := New(nil, "***", ";")

	msg := "password=secret;"
	if got := r.Redact(msg); got != msg {
		t.Errorf("expected no-op with empty field list, got %q", got)
	}
}

func TestHandler_RedactsRenderedLine(t *testing.T) {
	var out bytes.Buffer
	r := New([]string{"email", "password"}, "***", ";")
	logger := slog.New(NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}, r))

	logger.Info("user logged in", slog.String("audit", "email=bob@example.com;password=pw;"))

	line := out.String()
	if strings.Contains(line, "bob@example.com") || strings.Contains(line, "pw;") {
		t.Errorf("rendered line still contains PII: %q", line)
	}
	if !strings.Contains(line, "email=***;") || !strings.Contains(line, "password=***;") {
		t.Errorf("expected placeholders in rendered line: %q", line)
	}
	if !strings.Contains(line, "user logged in") {
		t.Errorf("expected message to survive redaction: %q", line)
	}
}

func TestHandler_RedactsMessageText(t *testing.T) {
	// Redaction runs on the final rendered string, so PII inside the
	// message itself is scrubbed too -- not just attribute values.
	var out bytes.Buffer
	r := New([]string{"ssn"}, "***", ";")
	logger := slog.New(NewTextHandler(&out, nil, r))

	logger.Info("record dump: ssn=123-45-6789;state=OR;")

	line := out.String()
	if strings.Contains(line, "123-45-6789") {
		t.Errorf("message text not redacted: %q", line)
	}
}

func TestHandler_WithAttrsSharesOutput(t *testing.T) {
	var out bytes.Buffer
	r := New([]string{"password"}, "***", ";")
	base := NewTextHandler(&out, nil, r)
	logger := slog.New(base).With(slog.String("component", "auth"))

	logger.Info("attempt", slog.String("audit", "password=letmein;"))

	line := out.String()
	if !strings.Contains(line, "component=auth") {
		t.Errorf("expected derived handler attrs in output: %q", line)
	}
	if strings.Contains(line, "letmein") {
		t.Errorf("derived handler skipped redaction: %q", line)
	}
}

func TestHandler_Enabled(t *testing.T) {
	var out bytes.Buffer
	r := New(nil, "***", ";")
	h := NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelWarn}, r)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled at warn level")
	}
}
