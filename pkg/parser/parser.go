// Package parser turns raw feed bytes into the unified feed model.
//
// Parsing is tolerant: structural and semantic defects set the bozo flag on
// the result instead of failing the call. The only hard failure is an input
// larger than the configured size cap. Each call builds its own state, so
// concurrent parses over independent inputs are safe.
package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/umputun/feedparser/pkg/domain"
	"github.com/umputun/feedparser/pkg/encoding"
	"github.com/umputun/feedparser/pkg/limits"
)

// ErrFeedTooLarge is returned when the input exceeds Limits.MaxFeedSize.
// It is the only condition that prevents parsing outright.
var ErrFeedTooLarge = errors.New("feed exceeds size limit")

// errTokenStream aborts XML consumption after an unrecoverable decoder error.
// It never escapes the package, the fault is already recorded on the result.
var errTokenStream = errors.New("token stream error")

// Parse parses a feed with default limits.
func Parse(data []byte) (*domain.ParsedFeed, error) {
	return ParseWithLimits(data, limits.Default())
}

// ParseWithLimits parses a feed with custom limits. Malformed input is
// tolerated and reported through the Bozo/BozoException fields of the result,
// the returned error is non-nil only when the input is larger than
// lims.MaxFeedSize.
func ParseWithLimits(data []byte, lims limits.Limits) (*domain.ParsedFeed, error) {
	return ParseResponse(data, "", lims)
}

// ParseResponse parses a document fetched over HTTP, using the Content-Type
// header value as the charset hint when the body carries no byte order mark.
func ParseResponse(data []byte, contentType string, lims limits.Limits) (*domain.ParsedFeed, error) {
	if len(data) > lims.MaxFeedSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFeedTooLarge, len(data), lims.MaxFeedSize)
	}

	feed := domain.NewParsedFeed()
	st := &state{feed: feed, lims: lims, limitHit: map[string]bool{}}

	decoded, encName, err := encoding.Decode(data, contentType)
	if err != nil {
		st.fault(fmt.Sprintf("encoding conversion failed: %v", err))
		decoded = data
	} else {
		feed.Encoding = encName
	}

	trimmed := bytes.TrimLeft(decoded, " \t\r\n\uFEFF")
	if len(trimmed) == 0 {
		st.fault("empty input")
		return feed, nil
	}

	if trimmed[0] == '{' {
		st.parseJSONFeed(trimmed)
		return feed, nil
	}

	st.parseXML(trimmed)
	return feed, nil
}

// state is the mutable context of one parse call. It is threaded explicitly
// through every parsing function; recording a fault never unwinds past the
// enclosing element handler.
type state struct {
	feed      *domain.ParsedFeed
	lims      limits.Limits
	dec       *xml.Decoder
	depth     int
	limitHit  map[string]bool
	baseStack []string
	prevStart bool
}

// fault marks the result as defective. The most recent description wins.
func (st *state) fault(msg string) {
	st.feed.Bozo = true
	st.feed.BozoException = msg
}

// limitFault records a limit violation once per named collection.
func (st *state) limitFault(name, msg string) {
	if st.limitHit[name] {
		return
	}
	st.limitHit[name] = true
	st.fault(msg)
}

// descend bumps the nesting depth. It reports false when the depth cap is
// reached; the fault is recorded once and the caller skips the subtree.
func (st *state) descend() bool {
	st.depth++
	if st.depth > st.lims.MaxNestingDepth {
		st.limitFault("depth", fmt.Sprintf("nesting depth exceeds maximum %d", st.lims.MaxNestingDepth))
		return false
	}
	return true
}

// ascend unwinds one nesting level, saturating at zero.
func (st *state) ascend() {
	if st.depth > 0 {
		st.depth--
	}
}

// token pulls the next XML token. The lenient decoder repairs a mismatched
// close tag by renaming it to the innermost open element and inventing end
// elements for the levels it skipped. Invented tokens consume no input, which
// tells them apart from every real token and from the end half of a
// self-closing tag, so a missing close tag still surfaces as a fault while
// parsing continues with the repaired structure.
func (st *state) token() (xml.Token, error) {
	before := st.dec.InputOffset()
	tok, err := st.dec.Token()
	if err != nil {
		return nil, err
	}
	if end, ok := tok.(xml.EndElement); ok && st.dec.InputOffset() == before && !st.prevStart {
		st.fault(fmt.Sprintf("XML parsing error: mismatched close tag </%s>", end.Name.Local))
	}
	_, st.prevStart = tok.(xml.StartElement)
	return tok, nil
}

// parseXML routes the document to a per-format state machine based on its
// root element.
func (st *state) parseXML(data []byte) {
	st.dec = xml.NewDecoder(bytes.NewReader(data))
	st.dec.Strict = false
	// input is already UTF-8, ignore whatever the XML declaration claims
	st.dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }

	root, err := st.firstElement()
	if err != nil {
		st.fault(fmt.Sprintf("XML parsing error: %v", err))
		return
	}
	if root == nil {
		st.fault("no root element found")
		return
	}
	st.collectNamespaces(*root)

	switch {
	case root.Name.Local == "rss":
		st.feed.Version = rssVersion(attrValue(root.Attr, "version"))
		st.parseRSS(*root, false)
	case root.Name.Local == "RDF":
		st.feed.Version = domain.Rss10
		st.parseRSS(*root, true)
	case root.Name.Local == "feed":
		st.feed.Version = domain.Atom10
		if root.Name.Space == nsAtom03 {
			st.feed.Version = domain.Atom03
		}
		st.parseAtom(*root)
	default:
		st.fault(fmt.Sprintf("unrecognized root element <%s>", root.Name.Local))
	}
}

// firstElement consumes tokens up to the first start element.
func (st *state) firstElement() (*xml.StartElement, error) {
	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return &start, nil
		}
	}
}

// collectNamespaces records xmlns declarations from an element into the
// result's prefix to URI map.
func (st *state) collectNamespaces(start xml.StartElement) {
	for _, a := range start.Attr {
		prefix := ""
		switch {
		case a.Name.Space == "xmlns":
			prefix = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			prefix = "" // default namespace
		default:
			continue
		}
		if len(st.feed.Namespaces) >= st.lims.MaxNamespaces {
			st.limitFault("namespaces", fmt.Sprintf("namespace limit exceeded: %d", st.lims.MaxNamespaces))
			return
		}
		st.feed.Namespaces[prefix] = a.Value
	}
}

// pushBase enters the xml:base scope of an element: its own xml:base
// attribute, resolved against the inherited base, or the inherited base
// unchanged. Every pushBase is paired with a popBase when the element scope
// ends.
func (st *state) pushBase(start xml.StartElement) {
	base := st.curBase()
	if own := xmlBaseAttr(start.Attr); own != "" {
		base = resolveURL(base, own)
	}
	st.baseStack = append(st.baseStack, base)
}

func (st *state) popBase() {
	if len(st.baseStack) > 0 {
		st.baseStack = st.baseStack[:len(st.baseStack)-1]
	}
}

func (st *state) curBase() string {
	if len(st.baseStack) == 0 {
		return ""
	}
	return st.baseStack[len(st.baseStack)-1]
}

// resolveURL resolves ref against base, falling back to ref untouched when
// either side does not parse as a URL.
func resolveURL(base, ref string) string {
	if base == "" || ref == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func xmlBaseAttr(attrs []xml.Attr) string {
	for _, a := range attrs {
		if a.Name.Local == "base" && (a.Name.Space == "xml" || a.Name.Space == nsXML) {
			return a.Value
		}
	}
	return ""
}

// rssVersion maps the rss element version attribute to a feed version,
// defaulting to RSS 2.0 for anything unrecognized.
func rssVersion(v string) domain.FeedVersion {
	switch strings.TrimSpace(v) {
	case "0.91":
		return domain.Rss091
	case "0.92":
		return domain.Rss092
	case "2.0", "2.00":
		return domain.Rss20
	}
	if strings.HasPrefix(v, "0.9") {
		return domain.Rss090
	}
	return domain.Rss20
}
