package parser

import (
	"errors"
	"fmt"
)

// NavigationError indicates the page failed to reach a target location
// within the navigation timeout. Fatal to the channel being parsed; the
// caller logs it and moves on to the next channel.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// IsNavigationError checks if an error is a NavigationError.
func IsNavigationError(err error) bool {
	var nav *NavigationError
	return errors.As(err, &nav)
}

// ChannelNotFoundError indicates navigation completed but no channel title
// rendered within the settle window. The channel may not exist, may be
// private, or the UI may simply have failed to render in time; the parser
// does not distinguish these causes.
type ChannelNotFoundError struct {
	Identifier string
}

func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("channel not found: %s", e.Identifier)
}

// IsChannelNotFoundError checks if an error is a ChannelNotFoundError.
func IsChannelNotFoundError(err error) bool {
	var nf *ChannelNotFoundError
	return errors.As(err, &nf)
}
