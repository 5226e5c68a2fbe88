package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/umputun/feedparser/pkg/dates"
	"github.com/umputun/feedparser/pkg/domain"
	"github.com/umputun/feedparser/pkg/limits"
)

// parseRSS consumes an <rss> or <rdf:RDF> document. In RDF form (RSS 1.0)
// items and the channel image are siblings of <channel> under the root; they
// all attach to the single channel regardless of document position.
func (st *state) parseRSS(root xml.StartElement, rdf bool) {
	st.pushBase(root)
	defer st.popBase()

	for {
		tok, err := st.token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				st.fault(fmt.Sprintf("XML parsing error: %v", err))
			}
			return
		}

		switch t := tok.(type) {
		case xml.StartElement:
			st.collectNamespaces(t)
			if !st.descend() {
				if st.skipElement() != nil {
					return
				}
				st.ascend()
				continue
			}
			var err error
			switch {
			case rssCoreSpace(t.Name.Space) && t.Name.Local == "channel":
				err = st.parseChannel(t, rdf)
			case rdf && rssCoreSpace(t.Name.Space) && t.Name.Local == "item":
				err = st.rssItem(t)
			case rdf && rssCoreSpace(t.Name.Space) && t.Name.Local == "image":
				err = st.rssImage(t)
			default:
				err = st.skipElement()
			}
			st.ascend()
			if err != nil {
				return
			}
		case xml.EndElement:
			return // root closed
		}
	}
}

// parseChannel populates feed metadata and, outside RDF form, the items.
func (st *state) parseChannel(start xml.StartElement, rdf bool) error {
	st.pushBase(start)
	defer st.popBase()

	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			st.fault(fmt.Sprintf("XML parsing error: %v", err))
			return errTokenStream
		}

		switch t := tok.(type) {
		case xml.StartElement:
			st.collectNamespaces(t)
			if !st.descend() {
				if err := st.skipElement(); err != nil {
					return err
				}
				st.ascend()
				continue
			}
			if err := st.channelElement(t, rdf); err != nil {
				return err
			}
			st.ascend()
		case xml.EndElement:
			return nil
		}
	}
}

func (st *state) channelElement(t xml.StartElement, rdf bool) error {
	feed := &st.feed.Feed

	if ns := canonicalNS(t.Name.Space); ns != "" {
		return st.dispatchExtension(ns, t, extTarget{feed: feed})
	}
	if !rssCoreSpace(t.Name.Space) {
		return st.skipElement()
	}

	switch t.Name.Local {
	case "title":
		text, err := st.readText()
		feed.Title = text
		return err
	case "link":
		text, err := st.readText()
		feed.Link = resolveURL(st.curBase(), text)
		if !limits.Push(&feed.Links, domain.Link{Href: feed.Link, Rel: "alternate"}, st.lims.MaxLinksPerFeed) {
			st.limitFault("feed links", fmt.Sprintf("feed link limit exceeded: %d", st.lims.MaxLinksPerFeed))
		}
		return err
	case "description":
		text, err := st.readText()
		feed.Subtitle = text
		feed.SubtitleDetail = &domain.TextConstruct{Value: text, ContentType: domain.TextHTML, Base: st.curBase()}
		return err
	case "language":
		text, err := st.readText()
		feed.Language = text
		return err
	case "copyright":
		text, err := st.readText()
		feed.Rights = text
		return err
	case "managingEditor":
		text, err := st.readText()
		feed.Author = text
		feed.AuthorDetail = personFromText(text)
		return err
	case "webMaster":
		text, err := st.readText()
		feed.Publisher = text
		feed.PublisherDetail = personFromText(text)
		return err
	case "generator":
		text, err := st.readText()
		feed.Generator = text
		feed.GeneratorDetail = &domain.Generator{Value: text}
		return err
	case "pubDate":
		return st.readDate(&feed.Published, "pubDate")
	case "lastBuildDate":
		return st.readDate(&feed.Updated, "lastBuildDate")
	case "ttl":
		text, err := st.readText()
		if ttl, convErr := strconv.Atoi(strings.TrimSpace(text)); convErr == nil {
			feed.TTL = ttl
		}
		return err
	case "category":
		scheme := attrValue(t.Attr, "domain")
		text, err := st.readText()
		if text != "" && !limits.Push(&feed.Tags, domain.Tag{Term: text, Scheme: scheme}, st.lims.MaxTags) {
			st.limitFault("feed tags", fmt.Sprintf("tag limit exceeded: %d", st.lims.MaxTags))
		}
		return err
	case "image":
		return st.rssImage(t)
	case "item":
		if !rdf {
			return st.rssItem(t)
		}
		return st.skipElement()
	default:
		return st.skipElement()
	}
}

// rssItem parses one <item>. Once the entry limit is reached further items
// are still parsed for their effect on the bozo flag, then discarded.
func (st *state) rssItem(start xml.StartElement) error {
	st.pushBase(start)
	defer st.popBase()

	entry := domain.NewEntry()

	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			st.fault(fmt.Sprintf("XML parsing error: %v", err))
			st.storeEntry(entry)
			return errTokenStream
		}

		done := false
		switch t := tok.(type) {
		case xml.StartElement:
			st.collectNamespaces(t)
			if !st.descend() {
				if err := st.skipElement(); err != nil {
					st.storeEntry(entry)
					return err
				}
				st.ascend()
				continue
			}
			if err := st.itemElement(t, &entry); err != nil {
				st.storeEntry(entry)
				return err
			}
			st.ascend()
		case xml.EndElement:
			done = true
		}
		if done {
			break
		}
	}

	st.storeEntry(entry)
	return nil
}

// storeEntry appends the entry subject to the entry cap.
func (st *state) storeEntry(entry domain.Entry) {
	if !limits.Push(&st.feed.Entries, entry, st.lims.MaxEntries) {
		st.limitFault("entries", fmt.Sprintf("entry limit exceeded: %d", st.lims.MaxEntries))
	}
}

func (st *state) itemElement(t xml.StartElement, entry *domain.Entry) error {
	if ns := canonicalNS(t.Name.Space); ns != "" {
		return st.dispatchExtension(ns, t, extTarget{entry: entry})
	}
	if !rssCoreSpace(t.Name.Space) {
		return st.skipElement()
	}

	switch t.Name.Local {
	case "title":
		text, err := st.readText()
		entry.Title = text
		return err
	case "link":
		text, err := st.readText()
		entry.Link = resolveURL(st.curBase(), text)
		if !limits.Push(&entry.Links, domain.Link{Href: entry.Link, Rel: "alternate"}, st.lims.MaxLinksPerEntry) {
			st.limitFault("entry links", fmt.Sprintf("entry link limit exceeded: %d", st.lims.MaxLinksPerEntry))
		}
		return err
	case "description":
		text, err := st.readText()
		entry.Summary = text
		entry.SummaryDetail = &domain.TextConstruct{Value: text, ContentType: domain.TextHTML, Base: st.curBase()}
		return err
	case "guid":
		permalink := attrValue(t.Attr, "isPermaLink")
		text, err := st.readText()
		entry.ID = text
		if entry.Link == "" && permalink != "false" && strings.HasPrefix(text, "http") {
			entry.Link = text
		}
		return err
	case "pubDate":
		return st.readDate(&entry.Published, "pubDate")
	case "expirationDate":
		return st.readDate(&entry.Expired, "expirationDate")
	case "author":
		text, err := st.readText()
		entry.Author = text
		entry.AuthorDetail = personFromText(text)
		return err
	case "category":
		scheme := attrValue(t.Attr, "domain")
		text, err := st.readText()
		if text != "" && !limits.Push(&entry.Tags, domain.Tag{Term: text, Scheme: scheme}, st.lims.MaxTags) {
			st.limitFault("entry tags", fmt.Sprintf("tag limit exceeded: %d", st.lims.MaxTags))
		}
		return err
	case "enclosure":
		if enc, ok := st.rssEnclosure(t); ok {
			if !limits.Push(&entry.Enclosures, enc, st.lims.MaxEnclosures) {
				st.limitFault("enclosures", fmt.Sprintf("enclosure limit exceeded: %d", st.lims.MaxEnclosures))
			}
		}
		return st.skipElement()
	case "comments":
		text, err := st.readText()
		entry.Comments = text
		return err
	case "source":
		link := attrValue(t.Attr, "url")
		text, err := st.readText()
		entry.Source = &domain.Source{Title: text, Link: link}
		return err
	default:
		return st.skipElement()
	}
}

// rssEnclosure builds an enclosure from the element attributes; a missing
// url attribute makes the whole enclosure unusable.
func (st *state) rssEnclosure(t xml.StartElement) (domain.Enclosure, bool) {
	attrs := st.boundedAttrs(t.Attr)
	enc := domain.Enclosure{
		URL:  resolveURL(st.curBase(), attrValue(attrs, "url")),
		Type: attrValue(attrs, "type"),
	}
	if l, err := strconv.ParseInt(strings.TrimSpace(attrValue(attrs, "length")), 10, 64); err == nil {
		enc.Length = l
	}
	return enc, enc.URL != ""
}

// rssImage parses a channel <image> block.
func (st *state) rssImage(start xml.StartElement) error {
	img := domain.Image{}
	// RSS 1.0 uses an empty image reference inside channel
	if url := attrValue(start.Attr, "resource"); url != "" {
		img.URL = url
	}

	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			st.fault(fmt.Sprintf("XML parsing error: %v", err))
			return errTokenStream
		}

		done := false
		switch t := tok.(type) {
		case xml.StartElement:
			if !st.descend() {
				if err := st.skipElement(); err != nil {
					return err
				}
				st.ascend()
				continue
			}
			var text string
			var rerr error
			switch t.Name.Local {
			case "url", "title", "link", "width", "height":
				text, rerr = st.readText()
			default:
				rerr = st.skipElement()
			}
			st.ascend()
			if rerr != nil {
				return rerr
			}
			switch t.Name.Local {
			case "url":
				img.URL = text
			case "title":
				img.Title = text
			case "link":
				img.Link = text
			case "width":
				if w, convErr := strconv.Atoi(strings.TrimSpace(text)); convErr == nil {
					img.Width = w
				}
			case "height":
				if h, convErr := strconv.Atoi(strings.TrimSpace(text)); convErr == nil {
					img.Height = h
				}
			}
		case xml.EndElement:
			done = true
		}
		if done {
			break
		}
	}

	if img.URL != "" {
		st.feed.Feed.Image = &img
	}
	return nil
}

// readDate reads element text and parses it as a timestamp; a non-empty
// value that matches no known format flags the feed.
func (st *state) readDate(dst **time.Time, field string) error {
	text, err := st.readText()
	if text == "" {
		return err
	}
	if ts, ok := dates.Parse(text); ok {
		*dst = &ts
	} else {
		st.fault(fmt.Sprintf("invalid %s format: %q", field, text))
	}
	return err
}

// personFromText interprets the common "email (Name)" and bare-email author
// forms of RSS.
func personFromText(s string) *domain.Person {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if open := strings.Index(s, "("); open > 0 && strings.HasSuffix(s, ")") {
		email := strings.TrimSpace(s[:open])
		name := strings.TrimSpace(s[open+1 : len(s)-1])
		return &domain.Person{Name: name, Email: email}
	}
	if strings.Contains(s, "@") && !strings.Contains(s, " ") {
		return &domain.Person{Email: s}
	}
	return &domain.Person{Name: s}
}

// rssCoreSpace reports whether the namespace belongs to plain RSS elements:
// no namespace, the RSS 1.0 default namespace, or RDF structure elements.
func rssCoreSpace(space string) bool {
	return space == "" || space == nsRSS10 || space == nsRDF
}
