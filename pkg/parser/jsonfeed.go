package parser

import (
	"encoding/json"
	"fmt"

	"github.com/umputun/feedparser/pkg/dates"
	"github.com/umputun/feedparser/pkg/domain"
	"github.com/umputun/feedparser/pkg/limits"
)

// jsonFeed mirrors the JSON Feed 1.0/1.1 document shape.
type jsonFeed struct {
	Version     string       `json:"version"`
	Title       *string      `json:"title"`
	HomePageURL string       `json:"home_page_url"`
	FeedURL     string       `json:"feed_url"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Favicon     string       `json:"favicon"`
	Language    string       `json:"language"`
	Author      *jsonAuthor  `json:"author"`  // 1.0
	Authors     []jsonAuthor `json:"authors"` // 1.1
	Items       []jsonItem   `json:"items"`
}

type jsonItem struct {
	ID            string           `json:"id"`
	URL           string           `json:"url"`
	ExternalURL   string           `json:"external_url"`
	Title         string           `json:"title"`
	ContentHTML   string           `json:"content_html"`
	ContentText   string           `json:"content_text"`
	Summary       string           `json:"summary"`
	Image         string           `json:"image"`
	DatePublished string           `json:"date_published"`
	DateModified  string           `json:"date_modified"`
	Language      string           `json:"language"`
	Author        *jsonAuthor      `json:"author"`
	Authors       []jsonAuthor     `json:"authors"`
	Tags          []string         `json:"tags"`
	Attachments   []jsonAttachment `json:"attachments"`
}

type jsonAuthor struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Avatar string `json:"avatar"`
}

type jsonAttachment struct {
	URL         string `json:"url"`
	MimeType    string `json:"mime_type"`
	Title       string `json:"title"`
	SizeInBytes int64  `json:"size_in_bytes"`
}

// parseJSONFeed parses a JSON Feed document. The format is well-formed by
// construction, so tolerance here is semantic: missing required fields flag
// the feed and the best partial substitute is used.
func (st *state) parseJSONFeed(data []byte) {
	var doc jsonFeed
	if err := json.Unmarshal(data, &doc); err != nil {
		st.fault(fmt.Sprintf("JSON parsing error: %v", err))
		return
	}

	st.feed.Version = jsonVersion(doc.Version)
	if st.feed.Version == domain.Unknown {
		st.fault(fmt.Sprintf("unrecognized JSON Feed version %q", doc.Version))
	}

	feed := &st.feed.Feed
	if doc.Title == nil {
		st.fault("JSON Feed missing required title")
	} else {
		feed.Title = st.boundedText(*doc.Title)
	}
	feed.Subtitle = st.boundedText(doc.Description)
	feed.Language = doc.Language
	feed.Icon = doc.Icon
	feed.Logo = doc.Favicon

	if doc.HomePageURL != "" {
		feed.Link = doc.HomePageURL
		if !limits.Push(&feed.Links, domain.Link{Href: doc.HomePageURL, Rel: "alternate"}, st.lims.MaxLinksPerFeed) {
			st.limitFault("feed links", fmt.Sprintf("feed link limit exceeded: %d", st.lims.MaxLinksPerFeed))
		}
	}
	if doc.FeedURL != "" {
		if !limits.Push(&feed.Links, domain.Link{Href: doc.FeedURL, Rel: "self"}, st.lims.MaxLinksPerFeed) {
			st.limitFault("feed links", fmt.Sprintf("feed link limit exceeded: %d", st.lims.MaxLinksPerFeed))
		}
	}

	for _, a := range jsonAuthors(doc.Author, doc.Authors) {
		person := domain.Person{Name: a.Name, URI: a.URL}
		if feed.AuthorDetail == nil {
			feed.AuthorDetail = &person
			feed.Author = person.Name
		}
		if !limits.Push(&feed.Authors, person, st.lims.MaxAuthors) {
			st.limitFault("feed authors", fmt.Sprintf("author limit exceeded: %d", st.lims.MaxAuthors))
		}
	}

	if doc.Items == nil {
		st.fault("JSON Feed missing required items array")
		return
	}

	for i := range doc.Items {
		st.storeEntry(st.jsonEntry(&doc.Items[i]))
	}
}

func (st *state) jsonEntry(item *jsonItem) domain.Entry {
	entry := domain.NewEntry()

	if item.ID == "" && item.URL == "" {
		st.fault("JSON Feed item missing both id and url")
	}
	entry.ID = item.ID
	if entry.ID == "" {
		entry.ID = item.URL
	}
	entry.Title = st.boundedText(item.Title)

	if item.URL != "" {
		entry.Link = item.URL
		if !limits.Push(&entry.Links, domain.Link{Href: item.URL, Rel: "alternate"}, st.lims.MaxLinksPerEntry) {
			st.limitFault("entry links", fmt.Sprintf("entry link limit exceeded: %d", st.lims.MaxLinksPerEntry))
		}
	}
	if item.ExternalURL != "" {
		if !limits.Push(&entry.Links, domain.Link{Href: item.ExternalURL, Rel: "related"}, st.lims.MaxLinksPerEntry) {
			st.limitFault("entry links", fmt.Sprintf("entry link limit exceeded: %d", st.lims.MaxLinksPerEntry))
		}
	}

	// content_html wins over content_text when both are present
	switch {
	case item.ContentHTML != "":
		content := domain.Content{Value: st.boundedText(item.ContentHTML), ContentType: "text/html", Language: item.Language}
		if !limits.Push(&entry.Content, content, st.lims.MaxContentBlocks) {
			st.limitFault("content blocks", fmt.Sprintf("content block limit exceeded: %d", st.lims.MaxContentBlocks))
		}
	case item.ContentText != "":
		content := domain.Content{Value: st.boundedText(item.ContentText), ContentType: "text/plain", Language: item.Language}
		if !limits.Push(&entry.Content, content, st.lims.MaxContentBlocks) {
			st.limitFault("content blocks", fmt.Sprintf("content block limit exceeded: %d", st.lims.MaxContentBlocks))
		}
	}

	entry.Summary = st.boundedText(firstNonEmpty(item.Summary, item.ContentHTML, item.ContentText))

	if ts, ok := dates.Parse(item.DatePublished); ok {
		entry.Published = &ts
	} else if item.DatePublished != "" {
		st.fault(fmt.Sprintf("invalid date_published format: %q", item.DatePublished))
	}
	if ts, ok := dates.Parse(item.DateModified); ok {
		entry.Updated = &ts
	} else if item.DateModified != "" {
		st.fault(fmt.Sprintf("invalid date_modified format: %q", item.DateModified))
	}

	for _, a := range jsonAuthors(item.Author, item.Authors) {
		person := domain.Person{Name: a.Name, URI: a.URL}
		if entry.AuthorDetail == nil {
			entry.AuthorDetail = &person
			entry.Author = person.Name
		}
		if !limits.Push(&entry.Authors, person, st.lims.MaxAuthors) {
			st.limitFault("entry authors", fmt.Sprintf("author limit exceeded: %d", st.lims.MaxAuthors))
		}
	}

	for _, tag := range item.Tags {
		if tag == "" {
			continue
		}
		if !limits.Push(&entry.Tags, domain.Tag{Term: tag}, st.lims.MaxTags) {
			st.limitFault("entry tags", fmt.Sprintf("tag limit exceeded: %d", st.lims.MaxTags))
		}
	}

	for _, att := range item.Attachments {
		if att.URL == "" {
			continue
		}
		enc := domain.Enclosure{URL: att.URL, Type: att.MimeType, Length: att.SizeInBytes}
		if !limits.Push(&entry.Enclosures, enc, st.lims.MaxEnclosures) {
			st.limitFault("enclosures", fmt.Sprintf("enclosure limit exceeded: %d", st.lims.MaxEnclosures))
		}
	}

	return entry
}

// jsonAuthors merges the 1.0 singular and 1.1 plural author forms.
func jsonAuthors(single *jsonAuthor, plural []jsonAuthor) []jsonAuthor {
	if len(plural) > 0 {
		return plural
	}
	if single != nil && (single.Name != "" || single.URL != "") {
		return []jsonAuthor{*single}
	}
	return nil
}

// boundedText truncates a string field to the text cap.
func (st *state) boundedText(s string) string {
	if len(s) > st.lims.MaxTextLength {
		st.limitFault("text", fmt.Sprintf("text length exceeds maximum %d, truncated", st.lims.MaxTextLength))
		return s[:st.lims.MaxTextLength]
	}
	return s
}
