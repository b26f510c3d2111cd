package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// countPattern matches a magnitude-suffix number: digits, an optional
// decimal part, an optional K/M/G scale. The match is kept as a raw string.
var countPattern = regexp.MustCompile(`\d+(?:\.\d+)?[KMG]?`)

// firstCount returns the first magnitude-suffix number in s, or "".
func firstCount(s string) string {
	return countPattern.FindString(s)
}

var integerPattern = regexp.MustCompile(`\d+`)

// parseEpoch converts a Unix-seconds attribute value to a time.
func parseEpoch(v string) (time.Time, error) {
	sec, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}

// Layouts for rendered date labels: day-month and day-month-year in either
// order, two- or four-digit years, spelled-out or numeric months.
var dateLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 06",
	"2 January 06",
	"2 Jan",
	"2 January",
	"Jan 2",
	"January 2",
	"2.1.2006",
	"02.01.2006",
	"2.1.06",
	"2/1/2006",
	"2/1/06",
	"2006-01-02",
}

// parseDisplayDate resolves a rendered date label relative to now.
// Recognized forms: "today", "yesterday", and the layouts above. Year-less
// labels take the current year, rolling back one year if that would place
// them in the future. Returns ok=false when the label is not recognized;
// callers treat an unrecognized label as "in range" rather than excluding
// the post.
func parseDisplayDate(label string, now time.Time) (time.Time, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return time.Time{}, false
	}

	switch strings.ToLower(label) {
	case "today":
		return now, true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	}

	normalized := capitalizeWords(label)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, normalized)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = t.AddDate(now.Year(), 0, 0)
			if t.After(now) {
				t = t.AddDate(-1, 0, 0)
			}
		}
		return t, true
	}
	return time.Time{}, false
}

// capitalizeWords maps "12 mar" to "12 Mar" so month names parse regardless
// of the casing the UI renders them in.
func capitalizeWords(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r := []rune(f)
		r[0] = unicode.ToUpper(r[0])
		for j := 1; j < len(r); j++ {
			r[j] = unicode.ToLower(r[j])
		}
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}
