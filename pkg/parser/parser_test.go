package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedparser/pkg/domain"
	"github.com/umputun/feedparser/pkg/limits"
)

func TestParse_RSS20(t *testing.T) {
	rssContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
	<title>Test Feed</title>
	<link>http://example.com</link>
	<description>Test Description</description>
	<language>en-us</language>
	<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
	<item>
		<title>Test Article 1</title>
		<link>http://example.com/article1</link>
		<description>Article 1 description</description>
		<content:encoded><![CDATA[<p>Full content of article 1</p>]]></content:encoded>
		<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
		<guid>http://example.com/article1</guid>
		<author>test@example.com (Test Author)</author>
	</item>
	<item>
		<title>Test Article 2</title>
		<link>http://example.com/article2</link>
		<description>Article 2 description</description>
		<pubDate>Tue, 03 Jan 2006 15:04:05 -0700</pubDate>
	</item>
</channel>
</rss>`

	feed, err := Parse([]byte(rssContent))
	require.NoError(t, err)

	assert.False(t, feed.Bozo, "well-formed feed should not be flagged: %s", feed.BozoException)
	assert.Equal(t, domain.Rss20, feed.Version)
	assert.Equal(t, "utf-8", feed.Encoding)

	assert.Equal(t, "Test Feed", feed.Feed.Title)
	assert.Equal(t, "http://example.com", feed.Feed.Link)
	assert.Equal(t, "Test Description", feed.Feed.Subtitle)
	assert.Equal(t, "en-us", feed.Feed.Language)
	require.NotNil(t, feed.Feed.Published)
	assert.Equal(t, time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC), *feed.Feed.Published)

	require.Len(t, feed.Entries, 2)

	e1 := feed.Entries[0]
	assert.Equal(t, "Test Article 1", e1.Title)
	assert.Equal(t, "http://example.com/article1", e1.Link)
	assert.Equal(t, "http://example.com/article1", e1.ID)
	assert.Equal(t, "Article 1 description", e1.Summary)
	require.Len(t, e1.Content, 1)
	assert.Equal(t, "<p>Full content of article 1</p>", e1.Content[0].Value)
	assert.Equal(t, "text/html", e1.Content[0].ContentType)
	assert.Equal(t, "test@example.com (Test Author)", e1.Author)
	require.NotNil(t, e1.AuthorDetail)
	assert.Equal(t, "Test Author", e1.AuthorDetail.Name)
	assert.Equal(t, "test@example.com", e1.AuthorDetail.Email)

	e2 := feed.Entries[1]
	assert.Equal(t, "Test Article 2", e2.Title)
	require.NotNil(t, e2.Published)

	assert.Equal(t, "http://purl.org/rss/1.0/modules/content/", feed.Namespaces["content"])
}

func TestParse_Tolerant(t *testing.T) {
	t.Run("truncated document keeps parsed data", func(t *testing.T) {
		feed, err := Parse([]byte(`<rss version="2.0"><channel><title>Broken Feed</title>`))
		require.NoError(t, err)
		assert.True(t, feed.Bozo)
		assert.Contains(t, feed.BozoException, "XML parsing error")
		assert.Equal(t, "Broken Feed", feed.Feed.Title)
	})

	t.Run("missing close tag flags but keeps parsed data", func(t *testing.T) {
		feed, err := Parse([]byte(`<rss version="2.0"><channel><title>Broken</title></rss>`))
		require.NoError(t, err)
		assert.True(t, feed.Bozo)
		assert.Contains(t, feed.BozoException, "mismatched close tag")
		assert.Equal(t, "Broken", feed.Feed.Title)
	})

	t.Run("self-closing elements are not mismatches", func(t *testing.T) {
		raw := `<rss version="2.0"><channel><title>Clean</title>
			<item><title>I</title><enclosure url="http://example.com/a.mp3" type="audio/mpeg"/></item>
		</channel></rss>`
		feed, err := Parse([]byte(raw))
		require.NoError(t, err)
		assert.False(t, feed.Bozo, "bozo: %s", feed.BozoException)
		require.Len(t, feed.Entries, 1)
		require.Len(t, feed.Entries[0].Enclosures, 1)
	})

	t.Run("garbage markup stops consumption after fault", func(t *testing.T) {
		feed, err := Parse([]byte(`<rss version="2.0"><channel><title>Partial</title><<junk></channel></rss>`))
		require.NoError(t, err)
		assert.True(t, feed.Bozo)
		assert.Equal(t, "Partial", feed.Feed.Title)
	})

	t.Run("empty input", func(t *testing.T) {
		feed, err := Parse([]byte("  \t\n"))
		require.NoError(t, err)
		assert.True(t, feed.Bozo)
		assert.Equal(t, "empty input", feed.BozoException)
		assert.Empty(t, feed.Entries)
		assert.Equal(t, domain.Unknown, feed.Version)
	})

	t.Run("unrecognized root element", func(t *testing.T) {
		feed, err := Parse([]byte(`<html><body>not a feed</body></html>`))
		require.NoError(t, err)
		assert.True(t, feed.Bozo)
		assert.Contains(t, feed.BozoException, "unrecognized root element")
	})

	t.Run("invalid date flags but keeps entry", func(t *testing.T) {
		raw := `<rss version="2.0"><channel><title>F</title>
			<item><title>I</title><pubDate>not a date at all %%</pubDate></item>
		</channel></rss>`
		feed, err := Parse([]byte(raw))
		require.NoError(t, err)
		assert.True(t, feed.Bozo)
		assert.Contains(t, feed.BozoException, "pubDate")
		require.Len(t, feed.Entries, 1)
		assert.Equal(t, "I", feed.Entries[0].Title)
		assert.Nil(t, feed.Entries[0].Published)
	})
}

func TestParseWithLimits_SizeCap(t *testing.T) {
	lims := limits.Default()
	lims.MaxFeedSize = 16

	_, err := ParseWithLimits([]byte(strings.Repeat("x", 17)), lims)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFeedTooLarge)

	feed, err := ParseWithLimits([]byte(`<rss/>`), lims)
	require.NoError(t, err, "input at or below the cap parses")
	require.NotNil(t, feed)
}

func TestParseWithLimits_EntryCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<rss version="2.0"><channel><title>Many</title>`)
	for i := 0; i < 5; i++ {
		sb.WriteString(`<item><title>item</title></item>`)
	}
	sb.WriteString(`</channel></rss>`)

	lims := limits.Default()
	lims.MaxEntries = 2

	feed, err := ParseWithLimits([]byte(sb.String()), lims)
	require.NoError(t, err)
	assert.True(t, feed.Bozo)
	assert.Contains(t, feed.BozoException, "entry limit exceeded: 2")
	assert.Len(t, feed.Entries, 2)
}

func TestParseWithLimits_NestingDepth(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<rss version="2.0"><channel><title>Deep</title>`)
	for i := 0; i < 50; i++ {
		sb.WriteString(`<nested>`)
	}
	for i := 0; i < 50; i++ {
		sb.WriteString(`</nested>`)
	}
	sb.WriteString(`</channel></rss>`)

	lims := limits.Default()
	lims.MaxNestingDepth = 5

	feed, err := ParseWithLimits([]byte(sb.String()), lims)
	require.NoError(t, err)
	assert.True(t, feed.Bozo)
	assert.Contains(t, feed.BozoException, "nesting depth")
	assert.Equal(t, "Deep", feed.Feed.Title)
}

func TestParseWithLimits_TextTruncation(t *testing.T) {
	lims := limits.Default()
	lims.MaxTextLength = 10

	raw := `<rss version="2.0"><channel><title>abcdefghijklmnop</title></channel></rss>`
	feed, err := ParseWithLimits([]byte(raw), lims)
	require.NoError(t, err)
	assert.True(t, feed.Bozo)
	assert.Contains(t, feed.BozoException, "truncated")
	assert.Equal(t, "abcdefghij", feed.Feed.Title)
}

func TestParse_VersionContract(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		version domain.FeedVersion
	}{
		{"rss 0.91", `<rss version="0.91"><channel><title>t</title></channel></rss>`, domain.Rss091},
		{"rss 0.92", `<rss version="0.92"><channel><title>t</title></channel></rss>`, domain.Rss092},
		{"rss 2.0", `<rss version="2.0"><channel><title>t</title></channel></rss>`, domain.Rss20},
		{"rss without version", `<rss><channel><title>t</title></channel></rss>`, domain.Rss20},
		{"rss 1.0 rdf", `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns="http://purl.org/rss/1.0/"><channel><title>t</title></channel></rdf:RDF>`, domain.Rss10},
		{"atom 1.0", `<feed xmlns="http://www.w3.org/2005/Atom"><title>t</title><updated>2024-01-01T00:00:00Z</updated></feed>`, domain.Atom10},
		{"atom 0.3", `<feed version="0.3" xmlns="http://purl.org/atom/ns#"><title>t</title><modified>2024-01-01T00:00:00Z</modified></feed>`, domain.Atom03},
		{"json feed 1.0", `{"version":"https://jsonfeed.org/version/1","title":"t","items":[]}`, domain.JSONFeed10},
		{"json feed 1.1", `{"version":"https://jsonfeed.org/version/1.1","title":"t","items":[]}`, domain.JSONFeed11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.version, feed.Version)
			assert.Equal(t, tt.version, DetectFormat([]byte(tt.input)), "detection and parsing must agree")
		})
	}
}

func TestParse_XMLBase(t *testing.T) {
	raw := `<feed xmlns="http://www.w3.org/2005/Atom" xml:base="http://example.com/blog/">
		<title>Based</title>
		<updated>2024-01-01T00:00:00Z</updated>
		<icon>icons/fav.png</icon>
		<link href="posts/1" rel="alternate"/>
	</feed>`

	feed, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/blog/icons/fav.png", feed.Feed.Icon)
	assert.Equal(t, "http://example.com/blog/posts/1", feed.Feed.Link)
}

func TestParse_NamespaceMap(t *testing.T) {
	raw := `<rss version="2.0"
		xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"
		xmlns:dc="http://purl.org/dc/elements/1.1/">
		<channel><title>t</title></channel></rss>`

	feed, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "http://www.itunes.com/dtds/podcast-1.0.dtd", feed.Namespaces["itunes"])
	assert.Equal(t, "http://purl.org/dc/elements/1.1/", feed.Namespaces["dc"])
}

func TestParse_Latin1Input(t *testing.T) {
	raw := []byte(`<?xml version="1.0" encoding="iso-8859-1"?><rss version="2.0"><channel><title>caf` + "\xe9" + `</title></channel></rss>`)

	feed, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "café", feed.Feed.Title)
	assert.Equal(t, "windows-1252", feed.Encoding)
}

func TestParseResponse_CharsetHint(t *testing.T) {
	// 0xd0 0xd1 0xd2 decode to Cyrillic only with the header hint, the
	// default sniff would read them as windows-1252
	raw := []byte(`<rss version="2.0"><channel><title>` + "\xd0\xd1\xd2" + `</title></channel></rss>`)

	feed, err := ParseResponse(raw, "application/rss+xml; charset=iso-8859-5", limits.Default())
	require.NoError(t, err)
	assert.Equal(t, "абв", feed.Feed.Title)
	assert.Equal(t, "iso-8859-5", feed.Encoding)
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"relative against base", "http://example.com/a/", "b", "http://example.com/a/b"},
		{"absolute ref wins", "http://example.com/", "http://other.com/x", "http://other.com/x"},
		{"empty base passes through", "", "b/c", "b/c"},
		{"empty ref", "http://example.com/", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveURL(tt.base, tt.ref))
		})
	}
}

func TestRSSVersion(t *testing.T) {
	assert.Equal(t, domain.Rss091, rssVersion("0.91"))
	assert.Equal(t, domain.Rss092, rssVersion("0.92"))
	assert.Equal(t, domain.Rss090, rssVersion("0.9"))
	assert.Equal(t, domain.Rss20, rssVersion("2.0"))
	assert.Equal(t, domain.Rss20, rssVersion("2.00"))
	assert.Equal(t, domain.Rss20, rssVersion("weird"))
	assert.Equal(t, domain.Rss20, rssVersion(""))
}
