package parser

// Canonical namespace URIs. Dispatch always resolves a tag to one of these
// before lookup, never to the document's arbitrary prefix.
const (
	nsXML     = "http://www.w3.org/XML/1998/namespace"
	nsRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRSS10   = "http://purl.org/rss/1.0/"
	nsAtom10  = "http://www.w3.org/2005/Atom"
	nsAtom03  = "http://purl.org/atom/ns#"
	nsITunes  = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	nsPodcast = "https://podcastindex.org/namespace/1.0"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsMedia   = "http://search.yahoo.com/mrss/"
	nsGeoRSS  = "http://www.georss.org/georss"
	nsCC      = "http://web.resource.org/cc/"
	nsSy      = "http://purl.org/rss/1.0/modules/syndication/"
	nsContent = "http://purl.org/rss/1.0/modules/content/"
)

// canonicalNS resolves a namespace URI to its canonical form, folding the
// variants seen in the wild onto one URI per family. Empty string means the
// namespace is not a recognized extension family.
func canonicalNS(uri string) string {
	switch uri {
	case nsITunes,
		"http://itunes.com/dtds/podcast-1.0.dtd",
		"https://www.itunes.com/dtds/podcast-1.0.dtd":
		return nsITunes
	case nsPodcast,
		"https://github.com/Podcastindex-org/podcast-namespace/blob/main/docs/1.0.md":
		return nsPodcast
	case nsDC,
		"http://purl.org/dc/elements/1.0/",
		"https://purl.org/dc/elements/1.1/":
		return nsDC
	case nsMedia,
		"http://search.yahoo.com/mrss",
		"https://search.yahoo.com/mrss/",
		"http://www.rssboard.org/media-rss":
		return nsMedia
	case nsGeoRSS,
		"http://www.georss.org/georss/":
		return nsGeoRSS
	case nsCC,
		"http://creativecommons.org/ns#",
		"http://backend.userland.com/creativeCommonsRssModule":
		return nsCC
	case nsSy:
		return nsSy
	case nsContent:
		return nsContent
	}
	return ""
}
