package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"telegram-parser/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveTargetsPrecedence(t *testing.T) {
	t.Run("single channel flag", func(t *testing.T) {
		cfg := config.Default()
		targets, err := resolveTargets(cfg, "", "durov", testLogger())
		if err != nil {
			t.Fatalf("resolveTargets failed: %v", err)
		}
		if len(targets) != 1 || targets[0].Name != "durov" {
			t.Errorf("Unexpected targets: %+v", targets)
		}
	})

	t.Run("config channels as fallback", func(t *testing.T) {
		cfg := config.Default()
		targets, err := resolveTargets(cfg, "", "", testLogger())
		if err != nil {
			t.Fatalf("resolveTargets failed: %v", err)
		}
		if len(targets) != 0 {
			t.Errorf("Expected empty default list, got %+v", targets)
		}
	})

	t.Run("missing channels file", func(t *testing.T) {
		cfg := config.Default()
		if _, err := resolveTargets(cfg, filepath.Join(t.TempDir(), "nope.json"), "durov", testLogger()); err == nil {
			t.Error("Expected an error for a missing channels file")
		}
	})
}

func TestProfileDir(t *testing.T) {
	cfg := config.Default()

	if got := profileDir(cfg); got != "" {
		t.Errorf("Expected no profile without a phone number, got %q", got)
	}

	cfg.Auth.Phone = "+1 (555) 123-4567"
	got := profileDir(cfg)
	want := filepath.Join("sessions", "user_data__1__555__123_4567")
	if got != want {
		t.Errorf("profileDir = %q, want %q", got, want)
	}
}
