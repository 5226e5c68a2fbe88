package domain

import "time"

// Entry represents a single feed item.
type Entry struct {
	ID            string         `json:"id,omitempty"`
	Title         string         `json:"title,omitempty"`
	TitleDetail   *TextConstruct `json:"title_detail,omitempty"`
	Link          string         `json:"link,omitempty"`
	Links         []Link         `json:"links"`
	Summary       string         `json:"summary,omitempty"`
	SummaryDetail *TextConstruct `json:"summary_detail,omitempty"`
	Content       []Content      `json:"content"`
	Published     *time.Time     `json:"published,omitempty"`
	Updated       *time.Time     `json:"updated,omitempty"`
	Created       *time.Time     `json:"created,omitempty"`
	Expired       *time.Time     `json:"expired,omitempty"`
	Author        string         `json:"author,omitempty"`
	AuthorDetail  *Person        `json:"author_detail,omitempty"`
	Authors       []Person       `json:"authors"`
	Contributors  []Person       `json:"contributors"`
	Tags          []Tag          `json:"tags"`
	Enclosures    []Enclosure    `json:"enclosures"`
	Comments      string         `json:"comments,omitempty"`
	Source        *Source        `json:"source,omitempty"`
	License       string         `json:"license,omitempty"`

	// flattened Dublin Core scalars
	DCCreator string     `json:"dc_creator,omitempty"`
	DCSubject []string   `json:"dc_subject"`
	DCDate    *time.Time `json:"dc_date,omitempty"`
	DCRights  string     `json:"dc_rights,omitempty"`

	// extension blocks
	ITunes          *ITunesEntry `json:"itunes,omitempty"`
	Podcast         *PodcastMeta `json:"podcast,omitempty"`
	Geo             *GeoGeometry `json:"geo,omitempty"`
	MediaThumbnails []Image      `json:"media_thumbnails"`
}

// NewEntry creates an entry with all collections allocated.
func NewEntry() Entry {
	return Entry{
		Links:           []Link{},
		Content:         []Content{},
		Authors:         []Person{},
		Contributors:    []Person{},
		Tags:            []Tag{},
		Enclosures:      []Enclosure{},
		DCSubject:       []string{},
		MediaThumbnails: []Image{},
	}
}
