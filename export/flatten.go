package export

import (
	"strconv"
	"strings"

	"telegram-parser/pkg/channel"
)

// postColumns is the canonical column order for tabular exports. Keeping it
// fixed means files from different runs line up in a spreadsheet.
var postColumns = []string{
	"id",
	"date",
	"timestamp",
	"datetime",
	"content",
	"views",
	"reactions",
	"comments",
	"media",
	"forwarded_from",
	"error",
}

// flattenPost renders a post as one row in postColumns order. Absent fields
// become empty cells; the media list collapses to a single "; "-joined cell.
func flattenPost(p *channel.Post) []string {
	var ts string
	if p.Timestamp != 0 {
		ts = strconv.FormatInt(p.Timestamp, 10)
	}
	var reactions string
	if p.Reactions != nil {
		reactions = strconv.Itoa(*p.Reactions)
	}
	return []string{
		p.ID,
		p.Date,
		ts,
		p.Datetime,
		p.Content,
		p.Views,
		reactions,
		p.Comments,
		flattenMedia(p.Media),
		p.ForwardedFrom,
		p.Error,
	}
}

// flattenMedia joins attachments into one cell: the URL for photos and
// videos, the display name for documents.
func flattenMedia(media []channel.Media) string {
	if len(media) == 0 {
		return ""
	}
	parts := make([]string, 0, len(media))
	for _, m := range media {
		if m.URL != "" {
			parts = append(parts, m.URL)
		} else {
			parts = append(parts, m.Name)
		}
	}
	return strings.Join(parts, "; ")
}
