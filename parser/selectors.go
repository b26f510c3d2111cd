package parser

// Telegram Web DOM selectors.
//
// These are isolated here because the web client reshuffles its DOM between
// releases. Each value is a comma-separated set of interchangeable selectors
// for one semantic target; single-element lookups try the set left to right
// and the first selector with a match wins, multi-element lookups take the
// union in document order. Update these when parsing breaks.
type Selectors struct {
	// Authenticated chat-list marker, present only after login.
	ChatList string

	// Channel header.
	Title       string
	Description string
	Subscribers string

	// Scrollable content region holding the rendered posts.
	Container string

	// Post elements and their fields.
	Post            string
	PostDate        string
	PostText        string
	PostViews       string
	Reactions       string
	ReactionCounter string
	Replies         string
	Media           string
	DocumentName    string
	ForwardedFrom   string
}

// DefaultSelectors matches the current Telegram Web "k" client plus the
// variants observed in earlier revisions of it.
func DefaultSelectors() Selectors {
	return Selectors{
		ChatList: ".chat-list, div[data-peer-id]",

		Title:       ".chat-info .peer-title",
		Description: ".chat-info .subtitle",
		Subscribers: ".chat-info-container .members, .chat-info .info",

		Container: ".bubbles, .messages-container",

		Post:            ".bubble[data-mid], message-list-item",
		PostDate:        ".time, .date",
		PostText:        ".text-content, .message-text",
		PostViews:       ".post-views, .views",
		Reactions:       ".reactions, reactions-element",
		ReactionCounter: ".reaction-counter, .counter",
		Replies:         ".replies-footer, .replies",
		Media:           ".media-container, .attachment",
		DocumentName:    ".document-name",
		ForwardedFrom:   ".forwarded-from, .is-forwarded .peer-title",
	}
}
