package parser

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"

	"github.com/umputun/feedparser/pkg/domain"
)

// DetectFormat classifies raw input as one of the supported feed dialects
// without requiring the document to be well formed. Detection is advisory:
// unknown or ambiguous input yields Unknown and is never an error.
func DetectFormat(data []byte) domain.FeedVersion {
	trimmed := bytes.TrimLeft(data, " \t\r\n\uFEFF")
	if len(trimmed) == 0 {
		return domain.Unknown
	}

	if trimmed[0] == '{' {
		return detectJSON(trimmed)
	}
	return detectXML(trimmed)
}

func detectJSON(data []byte) domain.FeedVersion {
	var probe struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return domain.Unknown
	}
	return jsonVersion(probe.Version)
}

// jsonVersion maps the JSON Feed version URL onto a feed version.
func jsonVersion(v string) domain.FeedVersion {
	switch {
	case strings.HasSuffix(v, "/version/1.1"):
		return domain.JSONFeed11
	case strings.HasSuffix(v, "/version/1"):
		return domain.JSONFeed10
	}
	return domain.Unknown
}

func detectXML(data []byte) domain.FeedVersion {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }

	for {
		tok, err := dec.Token()
		if err != nil {
			return domain.Unknown
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case start.Name.Local == "RDF":
			return domain.Rss10
		case start.Name.Local == "rss":
			return rssVersion(attrValue(start.Attr, "version"))
		case start.Name.Local == "feed" && start.Name.Space == nsAtom03:
			return domain.Atom03
		case start.Name.Local == "feed":
			return domain.Atom10
		}
		return domain.Unknown
	}
}
