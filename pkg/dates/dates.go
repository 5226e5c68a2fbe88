// Package dates parses the timestamp formats found in real-world feeds.
//
// Feeds carry dates in RFC 2822 form (RSS pubDate), RFC 3339 / ISO 8601 form
// (Atom, JSON Feed) and a long tail of truncated or sloppy variants. Parse
// tries an ordered list of formats and the first full match wins; adding a
// new format means appending to the list.
package dates

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// layouts are tried in order. RFC 2822 variants first, then RFC 3339 / ISO
// 8601 with and without fractional seconds, then progressively truncated
// calendar forms (date only, year-month, year).
var layouts = []string{
	time.RFC1123Z,                   // Mon, 02 Jan 2006 15:04:05 -0700
	time.RFC1123,                    // Mon, 02 Jan 2006 15:04:05 MST
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",    // RFC 2822 without weekday
	"02 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,                    // 02 Jan 06 15:04 -0700
	time.RFC822,                     // 02 Jan 06 15:04 MST
	time.RFC3339Nano,                // 2006-01-02T15:04:05.999999999Z07:00
	time.RFC3339,                    // 2006-01-02T15:04:05Z07:00
	"2006-01-02T15:04:05",           // ISO 8601 without zone, assume UTC
	"2006-01-02 15:04:05",
	"2006-01-02",                    // date only
	"2006-01",                       // year-month, day assumed 1
	"2006",                          // year only, month and day assumed 1
}

// Parse converts a feed timestamp string to UTC. The boolean result reports
// whether any format matched; an empty or all-whitespace input yields
// (zero, false) and is not a malformation, the caller decides whether a
// non-empty unparseable value should flag the feed.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// last resort covers the long tail of date forms seen in the wild
	if t, err := dateparse.ParseAny(s); err == nil {
		return t.UTC(), true
	}

	return time.Time{}, false
}
