package domain

// TextType describes how the value of a text construct should be treated.
type TextType string

// Text construct content types.
const (
	TextPlain TextType = "text"
	TextHTML  TextType = "html"
	TextXHTML TextType = "xhtml"
)

// TextConstruct carries text content together with its declared content type,
// the Atom model of titles, summaries and similar fields.
type TextConstruct struct {
	Value       string   `json:"value"`
	ContentType TextType `json:"content_type"`
	Language    string   `json:"language,omitempty"`
	Base        string   `json:"base,omitempty"`
}

// Link represents a feed or entry link.
type Link struct {
	Href     string `json:"href"`
	Rel      string `json:"rel,omitempty"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Length   int64  `json:"length,omitempty"`
	HrefLang string `json:"hreflang,omitempty"`
}

// Person represents an author or contributor.
type Person struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// Tag represents a category assigned to a feed or entry.
type Tag struct {
	Term   string `json:"term"`
	Scheme string `json:"scheme,omitempty"`
	Label  string `json:"label,omitempty"`
}

// Enclosure represents an attached media file.
type Enclosure struct {
	URL    string `json:"url"`
	Length int64  `json:"length,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Image represents a feed image or thumbnail.
type Image struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Link   string `json:"link,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Content is one content block of an entry.
type Content struct {
	Value       string `json:"value"`
	ContentType string `json:"content_type,omitempty"`
	Language    string `json:"language,omitempty"`
	Base        string `json:"base,omitempty"`
}

// Generator describes the software that produced the feed.
type Generator struct {
	Value   string `json:"value"`
	URI     string `json:"uri,omitempty"`
	Version string `json:"version,omitempty"`
}

// Source references the feed an entry was republished from.
type Source struct {
	Title string `json:"title,omitempty"`
	Link  string `json:"link,omitempty"`
	ID    string `json:"id,omitempty"`
}
