package browser

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"testing"
	"time"
)

func chromeAvailable() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// TestNavigateIntegration drives a real headless Chrome against a stable
// public page and exercises the driver primitives end to end.
func TestNavigateIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !chromeAvailable() {
		t.Skip("no Chrome binary available")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	b, err := Launch(ctx, Options{Headless: true}, logger)
	if err != nil {
		t.Fatalf("Failed to launch browser: %v", err)
	}
	defer b.Close()

	page := b.Page()
	if err := page.Navigate(ctx, "https://example.com/"); err != nil {
		t.Fatalf("Failed to navigate: %v", err)
	}

	loc, err := page.Location(ctx)
	if err != nil {
		t.Fatalf("Failed to read location: %v", err)
	}
	if loc == "" {
		t.Error("Expected a non-empty location after navigation")
	}
	t.Logf("Landed on %s", loc)

	found, err := page.Exists(ctx, "body")
	if err != nil {
		t.Fatalf("Failed to query body: %v", err)
	}
	if !found {
		t.Error("Expected the page to have a body")
	}

	text, err := page.Text(ctx, "h1")
	if err != nil {
		t.Fatalf("Failed to read heading: %v", err)
	}
	if text == "" {
		t.Error("Expected heading text on example.com")
	}

	els, err := page.Elements(ctx, "p")
	if err != nil {
		t.Fatalf("Failed to snapshot paragraphs: %v", err)
	}
	if len(els) == 0 {
		t.Error("Expected at least one paragraph element")
	}
}
