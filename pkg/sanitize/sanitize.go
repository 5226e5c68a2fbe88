// Package sanitize scrubs HTML carried inside parsed feeds. Feed content is
// untrusted input; summaries and content blocks frequently embed script tags,
// event handlers and other junk that must not reach a rendering surface.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/feedparser/pkg/domain"
)

// Sanitizer cleans HTML-typed fields of a parsed feed in place. Plain-text
// fields pass through untouched. Safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New creates a sanitizer with the UGC policy: formatting, links and images
// survive, scripts and styles do not.
func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// NewStrict creates a sanitizer that strips all markup, leaving text only.
func NewStrict() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean sanitizes a single HTML fragment.
func (s *Sanitizer) Clean(html string) string {
	return s.policy.Sanitize(html)
}

// Feed sanitizes every HTML-typed field of the parsed feed: text constructs
// marked html or xhtml, content blocks with an HTML MIME type, and the
// convenience string fields shadowing them.
func (s *Sanitizer) Feed(pf *domain.ParsedFeed) {
	s.feedMeta(&pf.Feed)
	for i := range pf.Entries {
		s.entry(&pf.Entries[i])
	}
}

func (s *Sanitizer) feedMeta(f *domain.FeedMeta) {
	if s.textConstruct(f.TitleDetail) {
		f.Title = f.TitleDetail.Value
	}
	if s.textConstruct(f.SubtitleDetail) {
		f.Subtitle = f.SubtitleDetail.Value
	}
	if s.textConstruct(f.RightsDetail) {
		f.Rights = f.RightsDetail.Value
	}
}

func (s *Sanitizer) entry(e *domain.Entry) {
	if s.textConstruct(e.TitleDetail) {
		e.Title = e.TitleDetail.Value
	}
	if s.textConstruct(e.SummaryDetail) {
		e.Summary = e.SummaryDetail.Value
	}
	for i := range e.Content {
		if htmlMIME(e.Content[i].ContentType) {
			e.Content[i].Value = s.Clean(e.Content[i].Value)
		}
	}
}

// textConstruct cleans the construct value when it is markup, reporting
// whether the shadowing plain string should be refreshed from it.
func (s *Sanitizer) textConstruct(tc *domain.TextConstruct) bool {
	if tc == nil || (tc.ContentType != domain.TextHTML && tc.ContentType != domain.TextXHTML) {
		return false
	}
	tc.Value = s.Clean(tc.Value)
	return true
}

func htmlMIME(mime string) bool {
	return strings.Contains(mime, "html")
}
