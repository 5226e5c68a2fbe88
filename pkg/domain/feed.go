package domain

import "time"

// FeedVersion identifies the detected feed dialect. The string values are a
// stable external contract consumed by bindings and must not change.
type FeedVersion string

// Known feed dialects.
const (
	Rss090     FeedVersion = "rss090"
	Rss091     FeedVersion = "rss091"
	Rss092     FeedVersion = "rss092"
	Rss10      FeedVersion = "rss10"
	Rss20      FeedVersion = "rss20"
	Atom03     FeedVersion = "atom03"
	Atom10     FeedVersion = "atom10"
	JSONFeed10 FeedVersion = "json10"
	JSONFeed11 FeedVersion = "json11"
	Unknown    FeedVersion = ""
)

// String returns the stable identifier for the version, empty for Unknown.
func (v FeedVersion) String() string { return string(v) }

// ParsedFeed is the root result of a parse call. It owns all of its data,
// nothing references the input buffer after parsing completes.
type ParsedFeed struct {
	Feed          FeedMeta          `json:"feed"`
	Entries       []Entry           `json:"entries"`
	Bozo          bool              `json:"bozo"`           // input had defects that were tolerated
	BozoException string            `json:"bozo_exception"` // description of the most recent tolerated defect
	Encoding      string            `json:"encoding"`       // source character encoding, e.g. "utf-8"
	Version       FeedVersion       `json:"version"`
	Namespaces    map[string]string `json:"namespaces"` // declared prefix -> namespace URI
}

// NewParsedFeed creates an empty result with all collections allocated,
// defaulting to UTF-8 encoding.
func NewParsedFeed() *ParsedFeed {
	return &ParsedFeed{
		Feed:       NewFeedMeta(),
		Entries:    []Entry{},
		Encoding:   "utf-8",
		Version:    Unknown,
		Namespaces: map[string]string{},
	}
}

// FeedMeta holds channel/feed level metadata.
type FeedMeta struct {
	Title           string         `json:"title,omitempty"`
	TitleDetail     *TextConstruct `json:"title_detail,omitempty"`
	Link            string         `json:"link,omitempty"`
	Links           []Link         `json:"links"`
	Subtitle        string         `json:"subtitle,omitempty"`
	SubtitleDetail  *TextConstruct `json:"subtitle_detail,omitempty"`
	Updated         *time.Time     `json:"updated,omitempty"`
	Published       *time.Time     `json:"published,omitempty"`
	Author          string         `json:"author,omitempty"`
	AuthorDetail    *Person        `json:"author_detail,omitempty"`
	Authors         []Person       `json:"authors"`
	Contributors    []Person       `json:"contributors"`
	Publisher       string         `json:"publisher,omitempty"`
	PublisherDetail *Person        `json:"publisher_detail,omitempty"`
	Language        string         `json:"language,omitempty"`
	Rights          string         `json:"rights,omitempty"`
	RightsDetail    *TextConstruct `json:"rights_detail,omitempty"`
	Generator       string         `json:"generator,omitempty"`
	GeneratorDetail *Generator     `json:"generator_detail,omitempty"`
	Image           *Image         `json:"image,omitempty"`
	Icon            string         `json:"icon,omitempty"`
	Logo            string         `json:"logo,omitempty"`
	Tags            []Tag          `json:"tags"`
	ID              string         `json:"id,omitempty"`
	TTL             int            `json:"ttl,omitempty"`
	License         string         `json:"license,omitempty"`

	// flattened Dublin Core scalars, mirroring flat external-API expectations
	DCCreator   string     `json:"dc_creator,omitempty"`
	DCPublisher string     `json:"dc_publisher,omitempty"`
	DCRights    string     `json:"dc_rights,omitempty"`
	DCDate      *time.Time `json:"dc_date,omitempty"`

	// extension blocks
	ITunes      *ITunesFeed  `json:"itunes,omitempty"`
	Podcast     *PodcastMeta `json:"podcast,omitempty"`
	Geo         *GeoGeometry `json:"geo,omitempty"`
	Syndication *Syndication `json:"syndication,omitempty"`
}

// NewFeedMeta creates feed metadata with all collections allocated.
func NewFeedMeta() FeedMeta {
	return FeedMeta{
		Links:        []Link{},
		Authors:      []Person{},
		Contributors: []Person{},
		Tags:         []Tag{},
	}
}
