package parser

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotFound is returned by Element.Find when no descendant matches any
// selector in the set.
var ErrNotFound = errors.New("no matching element")

// Element is one rendered post-like node, queryable without a live browser.
// The production implementation is a goquery-backed snapshot of the node's
// outer HTML; tests substitute fakes to inject failures.
type Element interface {
	// Attr returns the value of an attribute on the element itself, or ""
	// when the attribute is absent.
	Attr(name string) (string, error)
	// Find returns the first descendant matching any selector in the
	// comma-separated set, trying selectors left to right. ErrNotFound when
	// nothing matches.
	Find(selector string) (Element, error)
	// FindAll returns every descendant matching the set, in document order.
	FindAll(selector string) ([]Element, error)
	// Text returns the element's own text content, trimmed.
	Text() (string, error)
}

type htmlElement struct {
	sel *goquery.Selection
}

// NewElement parses the outer HTML of a single rendered element into an
// Element. The browser driver snapshots nodes this way so that field
// extraction happens offline, against a stable copy of the node.
func NewElement(outerHTML string) (Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHTML))
	if err != nil {
		return nil, err
	}
	root := doc.Find("body").Children().First()
	if root.Length() == 0 {
		return nil, errors.New("element html is empty")
	}
	return htmlElement{sel: root}, nil
}

func (e htmlElement) Attr(name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}

func (e htmlElement) Find(selector string) (Element, error) {
	for _, part := range strings.Split(selector, ",") {
		s := e.sel.Find(strings.TrimSpace(part))
		if s.Length() > 0 {
			return htmlElement{sel: s.First()}, nil
		}
	}
	return nil, ErrNotFound
}

func (e htmlElement) FindAll(selector string) ([]Element, error) {
	var out []Element
	e.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, htmlElement{sel: s})
	})
	return out, nil
}

func (e htmlElement) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}
