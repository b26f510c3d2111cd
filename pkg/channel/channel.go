// Package channel contains the core domain types for the Telegram channel parser.
package channel

import (
	"strings"
	"time"
)

// Target identifies a channel to parse. Any one of the fields is enough;
// Identifier picks the first usable one.
type Target struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	ID       string `json:"id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Identifier returns the preferred identifier for this target: name, then
// username, then id, then url. Empty when the target carries none.
func (t Target) Identifier() string {
	for _, v := range []string{t.Name, t.Username, t.ID, t.URL} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// Info holds channel-level metadata, captured once per channel and never
// mutated afterwards. Title is the only required field; Error carries the
// first header-read failure so consumers of exported files can tell missing
// metadata from metadata the channel never had.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Subscribers string `json:"subscribers,omitempty"` // raw string, may carry a K/M/G suffix
	Username    string `json:"username,omitempty"`
	URL         string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// MediaType classifies a post attachment.
type MediaType string

const (
	MediaPhoto    MediaType = "photo"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
)

// Media describes one attachment on a post. URL is set for photos and
// videos, Name for documents.
type Media struct {
	Type MediaType `json:"type"`
	URL  string    `json:"url,omitempty"`
	Name string    `json:"name,omitempty"`
}

// Post is one extracted channel post. Every field except ID is optional and
// omitted from serialized output when absent. A post whose extraction failed
// outright carries ID "unknown" and a non-empty Error.
type Post struct {
	ID            string  `json:"id"`
	Date          string  `json:"date,omitempty"`      // display label as rendered
	Timestamp     int64   `json:"timestamp,omitempty"` // epoch seconds
	Datetime      string  `json:"datetime,omitempty"`  // RFC3339, derived from Timestamp
	Content       string  `json:"content,omitempty"`
	Views         string  `json:"views,omitempty"` // raw magnitude string
	Reactions     *int    `json:"reactions,omitempty"`
	Comments      string  `json:"comments,omitempty"` // raw magnitude string
	Media         []Media `json:"media,omitempty"`
	ForwardedFrom string  `json:"forwarded_from,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// DateRange filters posts by their resolved date. Both bounds are inclusive
// and compared on the date only, time of day ignored. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Active reports whether any bound is set.
func (r DateRange) Active() bool {
	return !r.Start.IsZero() || !r.End.IsZero()
}

// BeforeStart reports whether d falls strictly before the start bound.
func (r DateRange) BeforeStart(d time.Time) bool {
	return !r.Start.IsZero() && dateOnly(d).Before(dateOnly(r.Start))
}

// AfterEnd reports whether d falls strictly after the end bound.
func (r DateRange) AfterEnd(d time.Time) bool {
	return !r.End.IsZero() && dateOnly(d).After(dateOnly(r.End))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Result is the aggregate for one parsed channel, handed verbatim to the
// export sink. Posts are ordered newest-first, matching collection order.
type Result struct {
	Channel  Info   `json:"channel"`
	Posts    []Post `json:"posts"`
	ParsedAt string `json:"parsed_at"`
}
