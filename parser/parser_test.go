package parser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"telegram-parser/pkg/channel"
)

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"durov", BaseURL + "#@durov"},
		{"@durov", BaseURL + "#@durov"},
		{" @durov ", BaseURL + "#@durov"},
		{"https://t.me/durov", "https://t.me/durov"},
		{"https://web.telegram.org/k/#@durov", "https://web.telegram.org/k/#@durov"},
	}

	for _, tt := range tests {
		if got := normalizeTarget(tt.in); got != tt.want {
			t.Errorf("normalizeTarget(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseChannel(t *testing.T) {
	sel := DefaultSelectors()
	ts := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC).Unix()
	d := &fakeDriver{
		frames: []fakeFrame{
			{posts: []string{postHTML("1", "hello", ts), postHTML("2", "world", ts)}, top: 0},
		},
		texts: map[string]string{
			sel.Title:       "Test Channel",
			sel.Description: "A channel about testing",
			sel.Subscribers: "12.5K subscribers",
		},
	}

	p := New(d, fastOptions(), testLogger())
	res, err := p.ParseChannel(context.Background(), channel.Target{Username: "testchan"})
	if err != nil {
		t.Fatalf("ParseChannel failed: %v", err)
	}

	if res.Channel.Title != "Test Channel" {
		t.Errorf("Expected channel title, got %q", res.Channel.Title)
	}
	if res.Channel.Description != "A channel about testing" {
		t.Errorf("Unexpected description: %q", res.Channel.Description)
	}
	if res.Channel.Subscribers != "12.5K" {
		t.Errorf("Expected subscriber count 12.5K, got %q", res.Channel.Subscribers)
	}
	if res.Channel.Username != "testchan" {
		t.Errorf("Expected username from location, got %q", res.Channel.Username)
	}
	if res.Channel.URL != "https://t.me/testchan" {
		t.Errorf("Unexpected channel URL: %q", res.Channel.URL)
	}
	if len(res.Posts) != 2 {
		t.Errorf("Expected 2 posts, got %d", len(res.Posts))
	}
	if res.ParsedAt == "" {
		t.Error("Expected ParsedAt to be set")
	}
	if _, err := time.Parse(time.RFC3339, res.ParsedAt); err != nil {
		t.Errorf("ParsedAt is not RFC3339: %q", res.ParsedAt)
	}
}

func TestParseChannelMissingTitle(t *testing.T) {
	d := &fakeDriver{
		frames: []fakeFrame{{top: 0}},
		texts:  map[string]string{},
	}

	p := New(d, fastOptions(), testLogger())
	_, err := p.ParseChannel(context.Background(), channel.Target{Username: "ghost"})
	if err == nil {
		t.Fatal("Expected an error when the channel title never renders")
	}
	if !IsChannelNotFoundError(err) {
		t.Errorf("Expected a ChannelNotFoundError, got %T: %v", err, err)
	}
}

func TestParseChannelRecordsHeaderReadFailure(t *testing.T) {
	sel := DefaultSelectors()
	ts := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC).Unix()
	d := &fakeDriver{
		frames: []fakeFrame{{posts: []string{postHTML("1", "hello", ts)}, top: 0}},
		texts: map[string]string{
			sel.Title: "Test Channel",
		},
		textErrs: map[string]error{
			sel.Description: errors.New("stale node"),
		},
	}

	p := New(d, fastOptions(), testLogger())
	res, err := p.ParseChannel(context.Background(), channel.Target{Username: "testchan"})
	if err != nil {
		t.Fatalf("ParseChannel failed: %v", err)
	}

	if res.Channel.Title != "Test Channel" {
		t.Errorf("Expected the title to survive a metadata failure, got %q", res.Channel.Title)
	}
	if !strings.Contains(res.Channel.Error, "stale node") {
		t.Errorf("Expected the header-read failure on Channel.Error, got %q", res.Channel.Error)
	}
	if len(res.Posts) != 1 {
		t.Errorf("Expected collection to proceed, got %d posts", len(res.Posts))
	}
}

func TestParseChannelNavigationFailure(t *testing.T) {
	d := &fakeDriver{
		frames: []fakeFrame{{top: 0}},
		navErr: errors.New("net::ERR_TIMED_OUT"),
	}

	p := New(d, fastOptions(), testLogger())
	_, err := p.ParseChannel(context.Background(), channel.Target{Username: "unreachable"})
	if err == nil {
		t.Fatal("Expected a navigation error")
	}
	if !IsNavigationError(err) {
		t.Errorf("Expected a NavigationError, got %T: %v", err, err)
	}
}
