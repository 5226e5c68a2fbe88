package parser

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/umputun/feedparser/pkg/dates"
	"github.com/umputun/feedparser/pkg/domain"
	"github.com/umputun/feedparser/pkg/limits"
)

// extTarget is the mutable destination of a namespace handler: feed-level or
// entry-level metadata, exactly one of the two set.
type extTarget struct {
	feed  *domain.FeedMeta
	entry *domain.Entry
}

type extKey struct {
	space string
	local string
}

// extHandler mutates the target from one captured extension element.
type extHandler func(st *state, tgt extTarget, n *node)

// dispatchExtension routes an element in a recognized extension namespace to
// its handler. A recognized namespace with an unrecognized local name is
// skipped silently, same as an unknown namespace at the call site.
func (st *state) dispatchExtension(ns string, t xml.StartElement, tgt extTarget) error {
	h, ok := extHandlers[extKey{ns, t.Name.Local}]
	if !ok {
		return st.skipElement()
	}
	n, err := st.captureNode(t)
	if err != nil {
		return err
	}
	h(st, tgt, n)
	return nil
}

// extHandlers is the dispatch table: one handler per (canonical namespace,
// local name) pair, resolved once per tag.
var extHandlers = map[extKey]extHandler{
	// iTunes podcast namespace
	{nsITunes, "author"}:       handleITunesText,
	{nsITunes, "subtitle"}:     handleITunesText,
	{nsITunes, "summary"}:      handleITunesText,
	{nsITunes, "new-feed-url"}: handleITunesText,
	{nsITunes, "title"}:        handleITunesText,
	{nsITunes, "keywords"}:     handleITunesKeywords,
	{nsITunes, "explicit"}:     handleITunesExplicit,
	{nsITunes, "image"}:        handleITunesImage,
	{nsITunes, "duration"}:     handleITunesDuration,
	{nsITunes, "block"}:        handleITunesBlock,
	{nsITunes, "complete"}:     handleITunesComplete,
	{nsITunes, "type"}:         handleITunesType,
	{nsITunes, "episode"}:      handleITunesEpisode,
	{nsITunes, "season"}:       handleITunesSeason,
	{nsITunes, "episodeType"}:  handleITunesEpisodeType,
	{nsITunes, "owner"}:        handleITunesOwner,
	{nsITunes, "category"}:     handleITunesCategory,

	// Podcast 2.0 namespace
	{nsPodcast, "transcript"}: handlePodcastTranscript,
	{nsPodcast, "funding"}:    handlePodcastFunding,
	{nsPodcast, "person"}:     handlePodcastPerson,
	{nsPodcast, "guid"}:       handlePodcastGUID,
	{nsPodcast, "chapters"}:   handlePodcastChapters,

	// Dublin Core
	{nsDC, "creator"}:   handleDCCreator,
	{nsDC, "publisher"}: handleDCPublisher,
	{nsDC, "rights"}:    handleDCRights,
	{nsDC, "date"}:      handleDCDate,
	{nsDC, "subject"}:   handleDCSubject,
	{nsDC, "language"}:  handleDCLanguage,

	// Media RSS
	{nsMedia, "thumbnail"}:   handleMediaThumbnail,
	{nsMedia, "content"}:     handleMediaContent,
	{nsMedia, "credit"}:      handleMediaCredit,
	{nsMedia, "category"}:    handleMediaCategory,
	{nsMedia, "title"}:       handleMediaTitle,
	{nsMedia, "description"}: handleMediaDescription,

	// GeoRSS
	{nsGeoRSS, "point"}:   geoHandler(domain.GeoPoint),
	{nsGeoRSS, "line"}:    geoHandler(domain.GeoLine),
	{nsGeoRSS, "polygon"}: geoHandler(domain.GeoPolygon),
	{nsGeoRSS, "box"}:     geoHandler(domain.GeoBox),

	// Creative Commons
	{nsCC, "license"}: handleCCLicense,
	{nsCC, "License"}: handleCCLicense,

	// RSS 1.0 syndication module
	{nsSy, "updatePeriod"}:    handleSyUpdatePeriod,
	{nsSy, "updateFrequency"}: handleSyUpdateFrequency,
	{nsSy, "updateBase"}:      handleSyUpdateBase,

	// RSS 1.0 content module
	{nsContent, "encoded"}: handleContentEncoded,
}

// itunesFeed returns the lazily allocated iTunes block of a feed target.
func (tgt extTarget) itunesFeed() *domain.ITunesFeed {
	if tgt.feed.ITunes == nil {
		tgt.feed.ITunes = domain.NewITunesFeed()
	}
	return tgt.feed.ITunes
}

func (tgt extTarget) itunesEntry() *domain.ITunesEntry {
	if tgt.entry.ITunes == nil {
		tgt.entry.ITunes = domain.NewITunesEntry()
	}
	return tgt.entry.ITunes
}

func (tgt extTarget) podcast() *domain.PodcastMeta {
	if tgt.feed != nil {
		if tgt.feed.Podcast == nil {
			tgt.feed.Podcast = domain.NewPodcastMeta()
		}
		return tgt.feed.Podcast
	}
	if tgt.entry.Podcast == nil {
		tgt.entry.Podcast = domain.NewPodcastMeta()
	}
	return tgt.entry.Podcast
}

// handleITunesText routes the plain-text itunes elements to their fields.
// title applies to entries only, new-feed-url to the feed only, the rest to
// both levels.
func handleITunesText(_ *state, tgt extTarget, n *node) {
	if tgt.feed != nil {
		switch n.local {
		case "author":
			tgt.itunesFeed().Author = n.text
		case "subtitle":
			tgt.itunesFeed().Subtitle = n.text
		case "summary":
			tgt.itunesFeed().Summary = n.text
		case "new-feed-url":
			tgt.itunesFeed().NewFeedURL = n.text
		}
		return
	}
	if tgt.entry == nil {
		return
	}
	switch n.local {
	case "author":
		tgt.itunesEntry().Author = n.text
	case "subtitle":
		tgt.itunesEntry().Subtitle = n.text
	case "summary":
		tgt.itunesEntry().Summary = n.text
	case "title":
		tgt.itunesEntry().Title = n.text
	}
}

func handleITunesKeywords(st *state, tgt extTarget, n *node) {
	var kw []string
	for _, k := range strings.Split(n.text, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	if tgt.feed != nil {
		tgt.itunesFeed().Keywords = kw
		return
	}
	tgt.itunesEntry().Keywords = kw
}

func handleITunesExplicit(st *state, tgt extTarget, n *node) {
	explicit := parseExplicit(n.text)
	if explicit == nil {
		return
	}
	if tgt.feed != nil {
		tgt.itunesFeed().Explicit = explicit
		return
	}
	tgt.itunesEntry().Explicit = explicit
}

func handleITunesImage(st *state, tgt extTarget, n *node) {
	href := firstNonEmpty(n.attr("href"), n.text)
	if href == "" {
		return
	}
	if tgt.feed != nil {
		tgt.itunesFeed().Image = href
		return
	}
	tgt.itunesEntry().Image = href
}

func handleITunesDuration(st *state, tgt extTarget, n *node) {
	if tgt.entry == nil {
		return
	}
	if secs, ok := parseDuration(n.text); ok {
		tgt.itunesEntry().Duration = secs
	}
}

func handleITunesBlock(st *state, tgt extTarget, n *node) {
	if tgt.feed != nil {
		tgt.itunesFeed().Block = strings.EqualFold(n.text, "yes")
	}
}

func handleITunesComplete(st *state, tgt extTarget, n *node) {
	if tgt.feed != nil {
		tgt.itunesFeed().Complete = strings.EqualFold(n.text, "yes")
	}
}

func handleITunesType(st *state, tgt extTarget, n *node) {
	if tgt.feed != nil {
		tgt.itunesFeed().Type = strings.ToLower(n.text)
	}
}

func handleITunesEpisode(st *state, tgt extTarget, n *node) {
	if tgt.entry == nil {
		return
	}
	if v, err := strconv.Atoi(strings.TrimSpace(n.text)); err == nil {
		tgt.itunesEntry().Episode = v
	}
}

func handleITunesSeason(st *state, tgt extTarget, n *node) {
	if tgt.entry == nil {
		return
	}
	if v, err := strconv.Atoi(strings.TrimSpace(n.text)); err == nil {
		tgt.itunesEntry().Season = v
	}
}

func handleITunesEpisodeType(st *state, tgt extTarget, n *node) {
	if tgt.entry != nil {
		tgt.itunesEntry().EpisodeType = strings.ToLower(n.text)
	}
}

func handleITunesOwner(st *state, tgt extTarget, n *node) {
	if tgt.feed == nil {
		return
	}
	owner := &domain.ITunesOwner{}
	if c := n.child("name"); c != nil {
		owner.Name = c.text
	}
	if c := n.child("email"); c != nil {
		owner.Email = c.text
	}
	tgt.itunesFeed().Owner = owner
}

// handleITunesCategory builds a category with an optional subcategory from
// the first nested category element. Categories are feed-level only.
func handleITunesCategory(st *state, tgt extTarget, n *node) {
	if tgt.feed == nil {
		return
	}
	cat := domain.ITunesCategory{Text: n.attr("text")}
	if cat.Text == "" {
		return
	}
	if sub := n.child("category"); sub != nil {
		cat.Subcategory = sub.attr("text")
	}
	if !limits.Push(&tgt.itunesFeed().Categories, cat, st.lims.MaxTags) {
		st.limitFault("itunes categories", fmt.Sprintf("category limit exceeded: %d", st.lims.MaxTags))
	}
}

func handlePodcastTranscript(st *state, tgt extTarget, n *node) {
	url := n.attr("url")
	if url == "" {
		return
	}
	tr := domain.PodcastTranscript{URL: url, Type: n.attr("type"), Language: n.attr("language"), Rel: n.attr("rel")}
	p := tgt.podcast()
	if !limits.Push(&p.Transcripts, tr, st.lims.MaxEnclosures) {
		st.limitFault("podcast transcripts", fmt.Sprintf("transcript limit exceeded: %d", st.lims.MaxEnclosures))
	}
}

func handlePodcastFunding(st *state, tgt extTarget, n *node) {
	url := n.attr("url")
	if url == "" {
		return
	}
	p := tgt.podcast()
	if !limits.Push(&p.Funding, domain.PodcastFunding{URL: url, Message: n.text}, st.lims.MaxEnclosures) {
		st.limitFault("podcast funding", fmt.Sprintf("funding limit exceeded: %d", st.lims.MaxEnclosures))
	}
}

func handlePodcastPerson(st *state, tgt extTarget, n *node) {
	if n.text == "" {
		return
	}
	person := domain.PodcastPerson{
		Name:  n.text,
		Role:  n.attr("role"),
		Group: n.attr("group"),
		Img:   n.attr("img"),
		Href:  n.attr("href"),
	}
	p := tgt.podcast()
	if !limits.Push(&p.Persons, person, st.lims.MaxAuthors) {
		st.limitFault("podcast persons", fmt.Sprintf("person limit exceeded: %d", st.lims.MaxAuthors))
	}
}

func handlePodcastGUID(_ *state, tgt extTarget, n *node) {
	tgt.podcast().GUID = n.text
}

func handlePodcastChapters(_ *state, tgt extTarget, n *node) {
	tgt.podcast().Chapters = n.attr("url")
}

func handleDCCreator(st *state, tgt extTarget, n *node) {
	if tgt.feed != nil {
		tgt.feed.DCCreator = n.text
		if tgt.feed.Author == "" {
			tgt.feed.Author = n.text
		}
		return
	}
	tgt.entry.DCCreator = n.text
	if tgt.entry.Author == "" {
		tgt.entry.Author = n.text
	}
}

func handleDCPublisher(_ *state, tgt extTarget, n *node) {
	if tgt.feed != nil {
		tgt.feed.DCPublisher = n.text
	}
}

func handleDCRights(_ *state, tgt extTarget, n *node) {
	if tgt.feed != nil {
		tgt.feed.DCRights = n.text
		if tgt.feed.Rights == "" {
			tgt.feed.Rights = n.text
		}
		return
	}
	tgt.entry.DCRights = n.text
}

func handleDCDate(st *state, tgt extTarget, n *node) {
	ts, ok := dates.Parse(n.text)
	if !ok {
		if n.text != "" {
			st.fault(fmt.Sprintf("invalid dc:date format: %q", n.text))
		}
		return
	}
	if tgt.feed != nil {
		tgt.feed.DCDate = &ts
		if tgt.feed.Updated == nil {
			tgt.feed.Updated = &ts
		}
		return
	}
	tgt.entry.DCDate = &ts
	if tgt.entry.Published == nil {
		tgt.entry.Published = &ts
	}
}

func handleDCSubject(st *state, tgt extTarget, n *node) {
	if n.text == "" {
		return
	}
	if tgt.entry != nil {
		tgt.entry.DCSubject = append(tgt.entry.DCSubject, n.text)
		if !limits.Push(&tgt.entry.Tags, domain.Tag{Term: n.text}, st.lims.MaxTags) {
			st.limitFault("entry tags", fmt.Sprintf("tag limit exceeded: %d", st.lims.MaxTags))
		}
		return
	}
	if !limits.Push(&tgt.feed.Tags, domain.Tag{Term: n.text}, st.lims.MaxTags) {
		st.limitFault("feed tags", fmt.Sprintf("tag limit exceeded: %d", st.lims.MaxTags))
	}
}

func handleDCLanguage(_ *state, tgt extTarget, n *node) {
	if tgt.feed != nil && tgt.feed.Language == "" {
		tgt.feed.Language = n.text
	}
}

func handleMediaThumbnail(st *state, tgt extTarget, n *node) {
	url := n.attr("url")
	if url == "" {
		return
	}
	img := domain.Image{URL: url}
	if w, err := strconv.Atoi(n.attr("width")); err == nil {
		img.Width = w
	}
	if h, err := strconv.Atoi(n.attr("height")); err == nil {
		img.Height = h
	}
	if tgt.entry != nil {
		if !limits.Push(&tgt.entry.MediaThumbnails, img, st.lims.MaxEnclosures) {
			st.limitFault("media thumbnails", fmt.Sprintf("thumbnail limit exceeded: %d", st.lims.MaxEnclosures))
		}
		return
	}
	if tgt.feed.Image == nil {
		tgt.feed.Image = &img
	}
}

func handleMediaContent(st *state, tgt extTarget, n *node) {
	if tgt.entry == nil {
		return
	}
	url := n.attr("url")
	if url == "" {
		return
	}
	enc := domain.Enclosure{URL: url, Type: n.attr("type")}
	if l, err := strconv.ParseInt(n.attr("fileSize"), 10, 64); err == nil {
		enc.Length = l
	}
	if !limits.Push(&tgt.entry.Enclosures, enc, st.lims.MaxEnclosures) {
		st.limitFault("enclosures", fmt.Sprintf("enclosure limit exceeded: %d", st.lims.MaxEnclosures))
	}
}

func handleMediaCredit(st *state, tgt extTarget, n *node) {
	if tgt.entry == nil || n.text == "" {
		return
	}
	if !limits.Push(&tgt.entry.Authors, domain.Person{Name: n.text}, st.lims.MaxAuthors) {
		st.limitFault("entry authors", fmt.Sprintf("author limit exceeded: %d", st.lims.MaxAuthors))
	}
}

func handleMediaCategory(st *state, tgt extTarget, n *node) {
	if n.text == "" {
		return
	}
	tag := domain.Tag{Term: n.text, Scheme: n.attr("scheme")}
	if tgt.entry != nil {
		if !limits.Push(&tgt.entry.Tags, tag, st.lims.MaxTags) {
			st.limitFault("entry tags", fmt.Sprintf("tag limit exceeded: %d", st.lims.MaxTags))
		}
		return
	}
	if !limits.Push(&tgt.feed.Tags, tag, st.lims.MaxTags) {
		st.limitFault("feed tags", fmt.Sprintf("tag limit exceeded: %d", st.lims.MaxTags))
	}
}

func handleMediaTitle(_ *state, tgt extTarget, n *node) {
	if tgt.entry != nil && tgt.entry.Title == "" {
		tgt.entry.Title = n.text
	}
}

func handleMediaDescription(_ *state, tgt extTarget, n *node) {
	if tgt.entry != nil && tgt.entry.Summary == "" {
		tgt.entry.Summary = n.text
	}
}

// geoHandler parses whitespace-separated coordinate text into lat/lon pairs.
// A malformed geometry is dropped whole, never partially stored.
func geoHandler(geoType domain.GeoType) extHandler {
	return func(st *state, tgt extTarget, n *node) {
		pairs, err := parseGeoPairs(n.text)
		if err != nil {
			st.fault(fmt.Sprintf("invalid georss %s: %v", geoType, err))
			return
		}
		switch {
		case geoType == domain.GeoPoint && len(pairs) != 1:
			st.fault(fmt.Sprintf("georss point expects 1 coordinate pair, got %d", len(pairs)))
			return
		case geoType == domain.GeoBox && len(pairs) != 2:
			st.fault(fmt.Sprintf("georss box expects 2 coordinate pairs, got %d", len(pairs)))
			return
		case len(pairs) == 0:
			return
		}

		geo := &domain.GeoGeometry{Type: geoType, Coordinates: pairs}
		if tgt.entry != nil {
			tgt.entry.Geo = geo
			return
		}
		tgt.feed.Geo = geo
	}
}

func parseGeoPairs(text string) ([]domain.GeoPair, error) {
	tokens := strings.Fields(text)
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("odd number of coordinate values: %d", len(tokens))
	}
	pairs := make([]domain.GeoPair, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		lat, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil {
			return nil, fmt.Errorf("bad latitude %q", tokens[i])
		}
		lon, err := strconv.ParseFloat(tokens[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad longitude %q", tokens[i+1])
		}
		pairs = append(pairs, domain.GeoPair{Lat: lat, Lon: lon})
	}
	return pairs, nil
}

func handleCCLicense(_ *state, tgt extTarget, n *node) {
	license := firstNonEmpty(n.attr("resource"), n.text)
	if license == "" {
		return
	}
	if tgt.feed != nil {
		tgt.feed.License = license
		return
	}
	tgt.entry.License = license
}

func (tgt extTarget) syndication() *domain.Syndication {
	if tgt.feed.Syndication == nil {
		tgt.feed.Syndication = &domain.Syndication{}
	}
	return tgt.feed.Syndication
}

func handleSyUpdatePeriod(_ *state, tgt extTarget, n *node) {
	if tgt.feed != nil {
		tgt.syndication().UpdatePeriod = strings.ToLower(n.text)
	}
}

func handleSyUpdateFrequency(_ *state, tgt extTarget, n *node) {
	if tgt.feed == nil {
		return
	}
	if v, err := strconv.Atoi(strings.TrimSpace(n.text)); err == nil {
		tgt.syndication().UpdateFrequency = v
	}
}

func handleSyUpdateBase(st *state, tgt extTarget, n *node) {
	if tgt.feed == nil {
		return
	}
	if ts, ok := dates.Parse(n.text); ok {
		tgt.syndication().UpdateBase = &ts
	} else if n.text != "" {
		st.fault(fmt.Sprintf("invalid sy:updateBase format: %q", n.text))
	}
}

// handleContentEncoded maps content:encoded onto an HTML content block and,
// when the item has no description, its summary.
func handleContentEncoded(st *state, tgt extTarget, n *node) {
	if tgt.entry == nil {
		return
	}
	if !limits.Push(&tgt.entry.Content, domain.Content{Value: n.text, ContentType: "text/html"}, st.lims.MaxContentBlocks) {
		st.limitFault("content blocks", fmt.Sprintf("content block limit exceeded: %d", st.lims.MaxContentBlocks))
	}
	if tgt.entry.Summary == "" {
		tgt.entry.Summary = n.text
	}
}

// parseExplicit interprets the many spellings of the itunes explicit flag.
func parseExplicit(v string) *bool {
	t, f := true, false
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "explicit":
		return &t
	case "no", "false", "clean":
		return &f
	}
	return nil
}

// parseDuration accepts HH:MM:SS, MM:SS and bare seconds.
func parseDuration(v string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}
