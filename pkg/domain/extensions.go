package domain

import "time"

// ITunesFeed holds iTunes podcast metadata at the feed level.
type ITunesFeed struct {
	Author      string           `json:"author,omitempty"`
	Owner       *ITunesOwner     `json:"owner,omitempty"`
	Categories  []ITunesCategory `json:"categories"`
	Explicit    *bool            `json:"explicit,omitempty"`
	Image       string           `json:"image,omitempty"`
	Keywords    []string         `json:"keywords"`
	Subtitle    string           `json:"subtitle,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	Type        string           `json:"type,omitempty"` // "episodic" or "serial"
	Block       bool             `json:"block,omitempty"`
	Complete    bool             `json:"complete,omitempty"`
	NewFeedURL  string           `json:"new_feed_url,omitempty"`
}

// NewITunesFeed creates iTunes feed metadata with collections allocated.
func NewITunesFeed() *ITunesFeed {
	return &ITunesFeed{Categories: []ITunesCategory{}, Keywords: []string{}}
}

// ITunesEntry holds iTunes podcast metadata at the episode level.
type ITunesEntry struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Duration    int    `json:"duration,omitempty"` // seconds
	Explicit    *bool  `json:"explicit,omitempty"`
	Image       string `json:"image,omitempty"`
	Episode     int    `json:"episode,omitempty"`
	Season      int    `json:"season,omitempty"`
	EpisodeType string `json:"episode_type,omitempty"` // "full", "trailer" or "bonus"
	Subtitle    string `json:"subtitle,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Keywords    []string `json:"keywords"`
}

// NewITunesEntry creates iTunes entry metadata with collections allocated.
func NewITunesEntry() *ITunesEntry {
	return &ITunesEntry{Keywords: []string{}}
}

// ITunesOwner is the podcast owner contact.
type ITunesOwner struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ITunesCategory is a category with an optional nested subcategory.
type ITunesCategory struct {
	Text        string `json:"text"`
	Subcategory string `json:"subcategory,omitempty"`
}

// PodcastMeta holds Podcast 2.0 namespace metadata.
type PodcastMeta struct {
	GUID        string              `json:"guid,omitempty"`
	Transcripts []PodcastTranscript `json:"transcripts"`
	Funding     []PodcastFunding    `json:"funding"`
	Persons     []PodcastPerson     `json:"persons"`
	Chapters    string              `json:"chapters,omitempty"` // chapters file URL
}

// NewPodcastMeta creates Podcast 2.0 metadata with collections allocated.
func NewPodcastMeta() *PodcastMeta {
	return &PodcastMeta{
		Transcripts: []PodcastTranscript{},
		Funding:     []PodcastFunding{},
		Persons:     []PodcastPerson{},
	}
}

// PodcastTranscript is a Podcast 2.0 transcript reference.
type PodcastTranscript struct {
	URL      string `json:"url"`
	Type     string `json:"type,omitempty"`
	Language string `json:"language,omitempty"`
	Rel      string `json:"rel,omitempty"`
}

// PodcastFunding is a Podcast 2.0 funding link.
type PodcastFunding struct {
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// PodcastPerson is a Podcast 2.0 person credit.
type PodcastPerson struct {
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Group string `json:"group,omitempty"`
	Img   string `json:"img,omitempty"`
	Href  string `json:"href,omitempty"`
}

// GeoType identifies the shape of a GeoRSS geometry.
type GeoType string

// GeoRSS geometry kinds.
const (
	GeoPoint   GeoType = "point"
	GeoLine    GeoType = "line"
	GeoPolygon GeoType = "polygon"
	GeoBox     GeoType = "box"
)

// GeoPair is a single latitude/longitude pair.
type GeoPair struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoGeometry is a parsed GeoRSS geometry. Coordinates keep document order;
// a box holds exactly two pairs, southwest then northeast.
type GeoGeometry struct {
	Type        GeoType   `json:"type"`
	Coordinates []GeoPair `json:"coordinates"`
}

// Syndication holds the RSS 1.0 syndication module hints.
type Syndication struct {
	UpdatePeriod    string     `json:"update_period,omitempty"` // hourly, daily, weekly, monthly, yearly
	UpdateFrequency int        `json:"update_frequency,omitempty"`
	UpdateBase      *time.Time `json:"update_base,omitempty"`
}
