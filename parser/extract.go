package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"telegram-parser/pkg/channel"
)

// Extractor turns one rendered post element into a channel.Post. Every field
// is read independently: a field failure is logged at debug level and the
// field is left absent, never aborting the rest of the record. Only a
// failure to read the identifier downgrades the whole record to the
// {id: "unknown", error} placeholder.
type Extractor struct {
	sel    Selectors
	logger *slog.Logger
}

// NewExtractor creates an extractor for the given selector set.
func NewExtractor(sel Selectors, logger *slog.Logger) *Extractor {
	return &Extractor{sel: sel, logger: logger}
}

// resolveID returns the post's stable identifier: the data-mid attribute,
// falling back to the element id. Empty when neither is present.
func resolveID(el Element) (string, error) {
	id, err := el.Attr("data-mid")
	if err != nil {
		return "", fmt.Errorf("read data-mid: %w", err)
	}
	if id != "" {
		return id, nil
	}
	id, err = el.Attr("id")
	if err != nil {
		return "", fmt.Errorf("read id: %w", err)
	}
	return id, nil
}

// Extract builds a Post from one rendered element. Extracting the same
// unchanged element twice yields identical records.
func (x *Extractor) Extract(el Element) channel.Post {
	id, err := resolveID(el)
	if err != nil {
		x.logger.Debug("post identifier unreadable", "error", err)
		return channel.Post{ID: "unknown", Error: err.Error()}
	}
	post := channel.Post{ID: id}

	x.extractDate(el, &post)
	x.extractContent(el, &post)
	x.extractViews(el, &post)
	x.extractReactions(el, &post)
	x.extractComments(el, &post)
	x.extractMedia(el, &post)
	x.extractForwarded(el, &post)

	return post
}

func (x *Extractor) extractDate(el Element, post *channel.Post) {
	dateEl, err := el.Find(x.sel.PostDate)
	if err != nil {
		x.logger.Debug("post date not found", "id", post.ID)
		return
	}
	if label, err := dateEl.Text(); err == nil && label != "" {
		post.Date = label
	}
	for _, attr := range []string{"data-timestamp", "data-time"} {
		v, err := dateEl.Attr(attr)
		if err != nil || v == "" {
			continue
		}
		ts, convErr := strconv.ParseInt(v, 10, 64)
		if convErr != nil {
			x.logger.Debug("timestamp attribute unparseable", "id", post.ID, "value", v)
			continue
		}
		post.Timestamp = ts
		post.Datetime = time.Unix(ts, 0).Format(time.RFC3339)
		break
	}
}

func (x *Extractor) extractContent(el Element, post *channel.Post) {
	texts, err := el.FindAll(x.sel.PostText)
	if err != nil {
		x.logger.Debug("post content unreadable", "id", post.ID, "error", err)
		return
	}
	var parts []string
	for _, t := range texts {
		s, err := t.Text()
		if err != nil || s == "" {
			continue
		}
		parts = append(parts, s)
	}
	post.Content = strings.Join(parts, "\n")
}

func (x *Extractor) extractViews(el Element, post *channel.Post) {
	viewsEl, err := el.Find(x.sel.PostViews)
	if err != nil {
		return
	}
	s, err := viewsEl.Text()
	if err != nil {
		x.logger.Debug("post views unreadable", "id", post.ID, "error", err)
		return
	}
	post.Views = firstCount(s)
}

// extractReactions sums every counter sub-element under the first recognized
// reaction container. A container with no inner counters falls back to the
// first integer in its own text.
func (x *Extractor) extractReactions(el Element, post *channel.Post) {
	container, err := el.Find(x.sel.Reactions)
	if err != nil {
		return
	}
	counters, err := container.FindAll(x.sel.ReactionCounter)
	if err != nil {
		x.logger.Debug("reaction counters unreadable", "id", post.ID, "error", err)
		return
	}
	total := 0
	counted := false
	for _, c := range counters {
		s, err := c.Text()
		if err != nil {
			continue
		}
		n, convErr := strconv.Atoi(integerPattern.FindString(s))
		if convErr != nil {
			continue
		}
		total += n
		counted = true
	}
	if !counted {
		s, err := container.Text()
		if err != nil {
			return
		}
		n, convErr := strconv.Atoi(integerPattern.FindString(s))
		if convErr != nil {
			return
		}
		total = n
	}
	post.Reactions = &total
}

func (x *Extractor) extractComments(el Element, post *channel.Post) {
	repliesEl, err := el.Find(x.sel.Replies)
	if err != nil {
		return
	}
	s, err := repliesEl.Text()
	if err != nil {
		x.logger.Debug("post comments unreadable", "id", post.ID, "error", err)
		return
	}
	post.Comments = firstCount(s)
}

// extractMedia classifies attachments by element type. It records a source
// URL for photos and videos and a display name for documents; it never
// downloads or validates anything.
func (x *Extractor) extractMedia(el Element, post *channel.Post) {
	containers, err := el.FindAll(x.sel.Media)
	if err != nil {
		x.logger.Debug("post media unreadable", "id", post.ID, "error", err)
		return
	}
	for _, c := range containers {
		if img, err := c.Find("img"); err == nil {
			if src, err := img.Attr("src"); err == nil && src != "" {
				post.Media = append(post.Media, channel.Media{Type: channel.MediaPhoto, URL: src})
				continue
			}
		}
		if video, err := c.Find("video"); err == nil {
			if src, err := video.Attr("src"); err == nil && src != "" {
				post.Media = append(post.Media, channel.Media{Type: channel.MediaVideo, URL: src})
				continue
			}
		}
		if doc, err := c.Find(x.sel.DocumentName); err == nil {
			if name, err := doc.Text(); err == nil && name != "" {
				post.Media = append(post.Media, channel.Media{Type: channel.MediaDocument, Name: name})
			}
		}
	}
}

func (x *Extractor) extractForwarded(el Element, post *channel.Post) {
	fwdEl, err := el.Find(x.sel.ForwardedFrom)
	if err != nil {
		return
	}
	s, err := fwdEl.Text()
	if err != nil {
		x.logger.Debug("forwarded origin unreadable", "id", post.ID, "error", err)
		return
	}
	post.ForwardedFrom = s
}
