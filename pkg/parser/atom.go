package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/umputun/feedparser/pkg/domain"
	"github.com/umputun/feedparser/pkg/limits"
)

// parseAtom consumes an Atom 0.3 or 1.0 <feed> document. Atom 0.3 element
// names (tagline, copyright, modified, issued, created) are folded onto their
// 1.0 equivalents.
func (st *state) parseAtom(root xml.StartElement) {
	st.pushBase(root)
	defer st.popBase()
	feed := &st.feed.Feed
	if lang := xmlLangAttr(root.Attr); lang != "" {
		feed.Language = lang
	}

	for {
		tok, err := st.token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				st.fault(fmt.Sprintf("XML parsing error: %v", err))
			}
			break
		}

		stop := false
		switch t := tok.(type) {
		case xml.StartElement:
			st.collectNamespaces(t)
			if !st.descend() {
				if st.skipElement() != nil {
					stop = true
					break
				}
				st.ascend()
				continue
			}
			err := st.atomFeedElement(t, feed)
			st.ascend()
			if err != nil {
				stop = true
			}
		case xml.EndElement:
			stop = true // feed closed
		}
		if stop {
			break
		}
	}

	// updated is required at feed level; its absence is tolerated but flagged
	if feed.Updated == nil {
		st.fault("atom feed missing required updated element")
	}
}

func (st *state) atomFeedElement(t xml.StartElement, feed *domain.FeedMeta) error {
	if ns := canonicalNS(t.Name.Space); ns != "" {
		return st.dispatchExtension(ns, t, extTarget{feed: feed})
	}
	if !atomCoreSpace(t.Name.Space) {
		return st.skipElement()
	}

	st.pushBase(t)
	defer st.popBase()

	switch t.Name.Local {
	case "title":
		tc, err := st.textConstruct(t)
		feed.Title = tc.Value
		feed.TitleDetail = tc
		return err
	case "subtitle", "tagline":
		tc, err := st.textConstruct(t)
		feed.Subtitle = tc.Value
		feed.SubtitleDetail = tc
		return err
	case "rights", "copyright":
		tc, err := st.textConstruct(t)
		feed.Rights = tc.Value
		feed.RightsDetail = tc
		return err
	case "id":
		text, err := st.readText()
		feed.ID = text
		return err
	case "icon":
		text, err := st.readText()
		feed.Icon = resolveURL(st.curBase(), text)
		return err
	case "logo":
		text, err := st.readText()
		feed.Logo = resolveURL(st.curBase(), text)
		return err
	case "updated", "modified":
		return st.readDate(&feed.Updated, t.Name.Local)
	case "generator":
		attrs := st.boundedAttrs(t.Attr)
		text, err := st.readText()
		feed.Generator = text
		feed.GeneratorDetail = &domain.Generator{
			Value:   text,
			URI:     resolveURL(st.curBase(), firstNonEmpty(attrValue(attrs, "uri"), attrValue(attrs, "url"))),
			Version: attrValue(attrs, "version"),
		}
		return err
	case "link":
		link := st.atomLink(t)
		if link.Rel == "alternate" && feed.Link == "" {
			feed.Link = link.Href
		}
		if !limits.Push(&feed.Links, link, st.lims.MaxLinksPerFeed) {
			st.limitFault("feed links", fmt.Sprintf("feed link limit exceeded: %d", st.lims.MaxLinksPerFeed))
		}
		return st.skipElement()
	case "author":
		person, err := st.atomPerson()
		if err == nil || errors.Is(err, errTokenStream) {
			if feed.AuthorDetail == nil {
				feed.AuthorDetail = &person
				feed.Author = person.Name
			}
			if !limits.Push(&feed.Authors, person, st.lims.MaxAuthors) {
				st.limitFault("feed authors", fmt.Sprintf("author limit exceeded: %d", st.lims.MaxAuthors))
			}
		}
		return err
	case "contributor":
		person, err := st.atomPerson()
		if err == nil {
			if !limits.Push(&feed.Contributors, person, st.lims.MaxContributors) {
				st.limitFault("feed contributors", fmt.Sprintf("contributor limit exceeded: %d", st.lims.MaxContributors))
			}
		}
		return err
	case "category":
		attrs := st.boundedAttrs(t.Attr)
		tag := domain.Tag{Term: attrValue(attrs, "term"), Scheme: attrValue(attrs, "scheme"), Label: attrValue(attrs, "label")}
		if tag.Term != "" && !limits.Push(&feed.Tags, tag, st.lims.MaxTags) {
			st.limitFault("feed tags", fmt.Sprintf("tag limit exceeded: %d", st.lims.MaxTags))
		}
		return st.skipElement()
	case "entry":
		return st.atomEntry(t)
	default:
		return st.skipElement()
	}
}

// atomEntry parses one <entry>, subject to the entry cap.
func (st *state) atomEntry(start xml.StartElement) error {
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
			st.finishAtomEntry(entry)
			return errTokenStream
		}

		done := false
		switch t := tok.(type) {
		case xml.StartElement:
			st.collectNamespaces(t)
			if !st.descend() {
				if err := st.skipElement(); err != nil {
					st.finishAtomEntry(entry)
					return err
				}
				st.ascend()
				continue
			}
			if err := st.atomEntryElement(t, &entry); err != nil {
				st.finishAtomEntry(entry)
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

	st.finishAtomEntry(entry)
	return nil
}

// finishAtomEntry applies the required-updated rule and stores the entry.
func (st *state) finishAtomEntry(entry domain.Entry) {
	if entry.Updated == nil {
		st.fault("atom entry missing required updated element")
	}
	st.storeEntry(entry)
}

func (st *state) atomEntryElement(t xml.StartElement, entry *domain.Entry) error {
	if ns := canonicalNS(t.Name.Space); ns != "" {
		return st.dispatchExtension(ns, t, extTarget{entry: entry})
	}
	if !atomCoreSpace(t.Name.Space) {
		return st.skipElement()
	}

	st.pushBase(t)
	defer st.popBase()

	switch t.Name.Local {
	case "title":
		tc, err := st.textConstruct(t)
		entry.Title = tc.Value
		entry.TitleDetail = tc
		return err
	case "summary":
		tc, err := st.textConstruct(t)
		entry.Summary = tc.Value
		entry.SummaryDetail = tc
		return err
	case "rights":
		tc, err := st.textConstruct(t)
		entry.DCRights = tc.Value
		return err
	case "content":
		return st.atomContent(t, entry)
	case "id":
		text, err := st.readText()
		entry.ID = text
		return err
	case "updated", "modified":
		return st.readDate(&entry.Updated, t.Name.Local)
	case "published", "issued":
		return st.readDate(&entry.Published, t.Name.Local)
	case "created":
		return st.readDate(&entry.Created, t.Name.Local)
	case "link":
		link := st.atomLink(t)
		switch link.Rel {
		case "alternate":
			if entry.Link == "" {
				entry.Link = link.Href
			}
		case "enclosure":
			enc := domain.Enclosure{URL: link.Href, Length: link.Length, Type: link.Type}
			if !limits.Push(&entry.Enclosures, enc, st.lims.MaxEnclosures) {
				st.limitFault("enclosures", fmt.Sprintf("enclosure limit exceeded: %d", st.lims.MaxEnclosures))
			}
		}
		if !limits.Push(&entry.Links, link, st.lims.MaxLinksPerEntry) {
			st.limitFault("entry links", fmt.Sprintf("entry link limit exceeded: %d", st.lims.MaxLinksPerEntry))
		}
		return st.skipElement()
	case "author":
		person, err := st.atomPerson()
		if err == nil || errors.Is(err, errTokenStream) {
			if entry.AuthorDetail == nil {
				entry.AuthorDetail = &person
				entry.Author = person.Name
			}
			if !limits.Push(&entry.Authors, person, st.lims.MaxAuthors) {
				st.limitFault("entry authors", fmt.Sprintf("author limit exceeded: %d", st.lims.MaxAuthors))
			}
		}
		return err
	case "contributor":
		person, err := st.atomPerson()
		if err == nil {
			if !limits.Push(&entry.Contributors, person, st.lims.MaxContributors) {
				st.limitFault("entry contributors", fmt.Sprintf("contributor limit exceeded: %d", st.lims.MaxContributors))
			}
		}
		return err
	case "category":
		attrs := st.boundedAttrs(t.Attr)
		tag := domain.Tag{Term: attrValue(attrs, "term"), Scheme: attrValue(attrs, "scheme"), Label: attrValue(attrs, "label")}
		if tag.Term != "" && !limits.Push(&entry.Tags, tag, st.lims.MaxTags) {
			st.limitFault("entry tags", fmt.Sprintf("tag limit exceeded: %d", st.lims.MaxTags))
		}
		return st.skipElement()
	case "source":
		return st.atomSource(entry)
	default:
		return st.skipElement()
	}
}

// atomContent handles the entry <content> element, which may carry inline
// text, inline markup, or only a src pointer.
func (st *state) atomContent(t xml.StartElement, entry *domain.Entry) error {
	attrs := st.boundedAttrs(t.Attr)
	if src := attrValue(attrs, "src"); src != "" {
		link := domain.Link{Href: resolveURL(st.curBase(), src), Rel: "related", Type: attrValue(attrs, "type")}
		if !limits.Push(&entry.Links, link, st.lims.MaxLinksPerEntry) {
			st.limitFault("entry links", fmt.Sprintf("entry link limit exceeded: %d", st.lims.MaxLinksPerEntry))
		}
		return st.skipElement()
	}

	tc, err := st.textConstruct(t)
	content := domain.Content{
		Value:       tc.Value,
		ContentType: contentMIME(tc.ContentType, attrValue(attrs, "type")),
		Language:    tc.Language,
		Base:        tc.Base,
	}
	if !limits.Push(&entry.Content, content, st.lims.MaxContentBlocks) {
		st.limitFault("content blocks", fmt.Sprintf("content block limit exceeded: %d", st.lims.MaxContentBlocks))
	}
	return err
}

// textConstruct reads an Atom text construct honoring its type attribute:
// xhtml content is captured as serialized markup, everything else as plain
// character data.
func (st *state) textConstruct(t xml.StartElement) (*domain.TextConstruct, error) {
	attrs := st.boundedAttrs(t.Attr)
	tc := &domain.TextConstruct{
		ContentType: textType(attrValue(attrs, "type")),
		Language:    xmlLangAttr(attrs),
		Base:        st.curBase(),
	}

	var err error
	if tc.ContentType == domain.TextXHTML {
		tc.Value, err = st.innerXML()
	} else {
		tc.Value, err = st.readText()
	}
	return tc, err
}

// atomLink builds a link from the element attributes; a missing rel means
// alternate per the Atom spec.
func (st *state) atomLink(t xml.StartElement) domain.Link {
	attrs := st.boundedAttrs(t.Attr)
	link := domain.Link{
		Href:     resolveURL(st.curBase(), attrValue(attrs, "href")),
		Rel:      attrValue(attrs, "rel"),
		Type:     attrValue(attrs, "type"),
		Title:    attrValue(attrs, "title"),
		HrefLang: attrValue(attrs, "hreflang"),
	}
	if link.Rel == "" {
		link.Rel = "alternate"
	}
	if l, err := strconv.ParseInt(strings.TrimSpace(attrValue(attrs, "length")), 10, 64); err == nil {
		link.Length = l
	}
	return link
}

// atomPerson reads a person construct (name, email, uri child elements).
func (st *state) atomPerson() (domain.Person, error) {
	person := domain.Person{}

	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return person, nil
			}
			st.fault(fmt.Sprintf("XML parsing error: %v", err))
			return person, errTokenStream
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !st.descend() {
				if err := st.skipElement(); err != nil {
					return person, err
				}
				st.ascend()
				continue
			}
			var text string
			var rerr error
			switch t.Name.Local {
			case "name", "email", "uri", "url":
				text, rerr = st.readText()
			default:
				rerr = st.skipElement()
			}
			st.ascend()
			if rerr != nil {
				return person, rerr
			}
			switch t.Name.Local {
			case "name":
				person.Name = text
			case "email":
				person.Email = text
			case "uri", "url":
				person.URI = resolveURL(st.curBase(), text)
			}
		case xml.EndElement:
			return person, nil
		}
	}
}

// atomSource reads the entry <source> element down to title, id and the
// alternate link.
func (st *state) atomSource(entry *domain.Entry) error {
	src := &domain.Source{}

	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			st.fault(fmt.Sprintf("XML parsing error: %v", err))
			entry.Source = src
			return errTokenStream
		}

		done := false
		switch t := tok.(type) {
		case xml.StartElement:
			if !st.descend() {
				if err := st.skipElement(); err != nil {
					entry.Source = src
					return err
				}
				st.ascend()
				continue
			}
			var rerr error
			switch t.Name.Local {
			case "title":
				src.Title, rerr = st.readText()
			case "id":
				src.ID, rerr = st.readText()
			case "link":
				link := st.atomLink(t)
				if link.Rel == "alternate" && src.Link == "" {
					src.Link = link.Href
				}
				rerr = st.skipElement()
			default:
				rerr = st.skipElement()
			}
			st.ascend()
			if rerr != nil {
				entry.Source = src
				return rerr
			}
		case xml.EndElement:
			done = true
		}
		if done {
			break
		}
	}

	entry.Source = src
	return nil
}

// textType maps the Atom type attribute to a text construct content type.
// Atom 0.3 MIME-style values are accepted too.
func textType(v string) domain.TextType {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "html", "text/html":
		return domain.TextHTML
	case "xhtml", "application/xhtml+xml":
		return domain.TextXHTML
	default:
		return domain.TextPlain
	}
}

// contentMIME converts a text construct type back to the MIME form stored on
// content blocks, preferring a concrete MIME type from the document.
func contentMIME(t domain.TextType, declared string) string {
	if strings.Contains(declared, "/") {
		return declared
	}
	switch t {
	case domain.TextHTML:
		return "text/html"
	case domain.TextXHTML:
		return "application/xhtml+xml"
	default:
		return "text/plain"
	}
}

func xmlLangAttr(attrs []xml.Attr) string {
	for _, a := range attrs {
		if a.Name.Local == "lang" && (a.Name.Space == "xml" || a.Name.Space == nsXML) {
			return a.Value
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// atomCoreSpace reports whether the namespace is one of the Atom feed
// namespaces (or empty, for sloppy feeds without a declared default).
func atomCoreSpace(space string) bool {
	return space == "" || space == nsAtom10 || space == nsAtom03
}
