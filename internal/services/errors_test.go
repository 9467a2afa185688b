package services_test

import (
	"errors"
	"strings"
	"testing"

	"yt2tandoor/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "download", "fetch audio", "yt-dlp failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"download", "fetch audio", "yt-dlp failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestDetailsExtractsWrappedFields(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrTransient, "publish", "create recipe", "Tandoor API error (HTTP 502): bad gateway", base)
	err = services.WithHint(err, "check Tandoor availability")

	details := services.Details(err)
	if details.Kind != services.KindTransient {
		t.Fatalf("unexpected kind %q", details.Kind)
	}
	if details.Stage != "publish" || details.Operation != "create recipe" {
		t.Fatalf("unexpected stage context: %q %q", details.Stage, details.Operation)
	}
	if details.Message != "Tandoor API error (HTTP 502): bad gateway" {
		t.Fatalf("unexpected message %q", details.Message)
	}
	if details.Hint != "check Tandoor availability" {
		t.Fatalf("unexpected hint %q", details.Hint)
	}
	if !errors.Is(details.Cause, base) {
		t.Fatalf("expected cause to carry base error, got %v", details.Cause)
	}
}

func TestDetailsPlainError(t *testing.T) {
	details := services.Details(errors.New("plain failure"))
	if details.Kind != services.KindUnknown {
		t.Fatalf("unexpected kind %q", details.Kind)
	}
	if details.Message != "plain failure" {
		t.Fatalf("unexpected message %q", details.Message)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "extract", "decode", "bad payload", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}
