package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedparser/pkg/domain"
)

func TestParseRSS_ChannelMetadata(t *testing.T) {
	raw := `<rss version="2.0">
<channel>
	<title>Channel Title</title>
	<link>http://example.com/</link>
	<description>About the channel</description>
	<language>de</language>
	<copyright>Copyright 2024 Example</copyright>
	<managingEditor>editor@example.com (Jo Editor)</managingEditor>
	<webMaster>web@example.com</webMaster>
	<generator>FeedGen 3.1</generator>
	<lastBuildDate>Sat, 07 Sep 2002 09:42:31 GMT</lastBuildDate>
	<ttl>60</ttl>
	<category domain="http://example.com/cats">tech</category>
	<image>
		<url>http://example.com/logo.png</url>
		<title>Channel Title</title>
		<link>http://example.com/</link>
		<width>88</width>
		<height>31</height>
	</image>
</channel>
</rss>`

	feed, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.False(t, feed.Bozo, feed.BozoException)

	f := feed.Feed
	assert.Equal(t, "Channel Title", f.Title)
	assert.Equal(t, "http://example.com/", f.Link)
	assert.Equal(t, "About the channel", f.Subtitle)
	require.NotNil(t, f.SubtitleDetail)
	assert.Equal(t, domain.TextHTML, f.SubtitleDetail.ContentType)
	assert.Equal(t, "de", f.Language)
	assert.Equal(t, "Copyright 2024 Example", f.Rights)

	assert.Equal(t, "editor@example.com (Jo Editor)", f.Author)
	require.NotNil(t, f.AuthorDetail)
	assert.Equal(t, "Jo Editor", f.AuthorDetail.Name)
	assert.Equal(t, "editor@example.com", f.AuthorDetail.Email)

	assert.Equal(t, "web@example.com", f.Publisher)
	require.NotNil(t, f.PublisherDetail)
	assert.Equal(t, "web@example.com", f.PublisherDetail.Email)

	assert.Equal(t, "FeedGen 3.1", f.Generator)
	require.NotNil(t, f.Updated)
	assert.Equal(t, time.Date(2002, 9, 7, 9, 42, 31, 0, time.UTC), *f.Updated)
	assert.Equal(t, 60, f.TTL)

	require.Len(t, f.Tags, 1)
	assert.Equal(t, "tech", f.Tags[0].Term)
	assert.Equal(t, "http://example.com/cats", f.Tags[0].Scheme)

	require.NotNil(t, f.Image)
	assert.Equal(t, "http://example.com/logo.png", f.Image.URL)
	assert.Equal(t, 88, f.Image.Width)
	assert.Equal(t, 31, f.Image.Height)

	require.Len(t, f.Links, 1)
	assert.Equal(t, "alternate", f.Links[0].Rel)
}

func TestParseRSS_Items(t *testing.T) {
	t.Run("guid as permalink fallback", func(t *testing.T) {
		raw := `<rss version="2.0"><channel><title>F</title>
			<item><title>I</title><guid>http://example.com/p/1</guid></item>
		</channel></rss>`
		feed, err := Parse([]byte(raw))
		require.NoError(t, err)
		require.Len(t, feed.Entries, 1)
		assert.Equal(t, "http://example.com/p/1", feed.Entries[0].ID)
		assert.Equal(t, "http://example.com/p/1", feed.Entries[0].Link)
	})

	t.Run("guid isPermaLink false does not become link", func(t *testing.T) {
		raw := `<rss version="2.0"><channel><title>F</title>
			<item><title>I</title><guid isPermaLink="false">http://example.com/p/1</guid></item>
		</channel></rss>`
		feed, err := Parse([]byte(raw))
		require.NoError(t, err)
		require.Len(t, feed.Entries, 1)
		assert.Equal(t, "http://example.com/p/1", feed.Entries[0].ID)
		assert.Empty(t, feed.Entries[0].Link)
	})

	t.Run("explicit link wins over guid", func(t *testing.T) {
		raw := `<rss version="2.0"><channel><title>F</title>
			<item><link>http://example.com/real</link><guid>http://example.com/other</guid></item>
		</channel></rss>`
		feed, err := Parse([]byte(raw))
		require.NoError(t, err)
		require.Len(t, feed.Entries, 1)
		assert.Equal(t, "http://example.com/real", feed.Entries[0].Link)
	})

	t.Run("enclosure comments source expiration", func(t *testing.T) {
		raw := `<rss version="2.0"><channel><title>F</title>
			<item>
				<title>I</title>
				<enclosure url="http://example.com/a.mp3" length="1234" type="audio/mpeg"/>
				<comments>http://example.com/comments/1</comments>
				<source url="http://other.com/feed.xml">Other Feed</source>
				<expirationDate>Wed, 01 Jan 2025 00:00:00 GMT</expirationDate>
			</item>
		</channel></rss>`
		feed, err := Parse([]byte(raw))
		require.NoError(t, err)
		assert.False(t, feed.Bozo, feed.BozoException)
		require.Len(t, feed.Entries, 1)

		e := feed.Entries[0]
		require.Len(t, e.Enclosures, 1)
		assert.Equal(t, "http://example.com/a.mp3", e.Enclosures[0].URL)
		assert.Equal(t, int64(1234), e.Enclosures[0].Length)
		assert.Equal(t, "audio/mpeg", e.Enclosures[0].Type)

		assert.Equal(t, "http://example.com/comments/1", e.Comments)
		require.NotNil(t, e.Source)
		assert.Equal(t, "Other Feed", e.Source.Title)
		assert.Equal(t, "http://other.com/feed.xml", e.Source.Link)
		require.NotNil(t, e.Expired)
	})

	t.Run("enclosure without url dropped", func(t *testing.T) {
		raw := `<rss version="2.0"><channel><title>F</title>
			<item><title>I</title><enclosure length="1" type="audio/mpeg"/></item>
		</channel></rss>`
		feed, err := Parse([]byte(raw))
		require.NoError(t, err)
		require.Len(t, feed.Entries, 1)
		assert.Empty(t, feed.Entries[0].Enclosures)
	})

	t.Run("item categories", func(t *testing.T) {
		raw := `<rss version="2.0"><channel><title>F</title>
			<item><title>I</title><category>go</category><category domain="http://example.com/c">parsing</category></item>
		</channel></rss>`
		feed, err := Parse([]byte(raw))
		require.NoError(t, err)
		require.Len(t, feed.Entries, 1)
		require.Len(t, feed.Entries[0].Tags, 2)
		assert.Equal(t, "go", feed.Entries[0].Tags[0].Term)
		assert.Equal(t, "parsing", feed.Entries[0].Tags[1].Term)
		assert.Equal(t, "http://example.com/c", feed.Entries[0].Tags[1].Scheme)
	})

	t.Run("cdata description", func(t *testing.T) {
		raw := `<rss version="2.0"><channel><title>F</title>
			<item><description><![CDATA[<b>bold</b> text]]></description></item>
		</channel></rss>`
		feed, err := Parse([]byte(raw))
		require.NoError(t, err)
		require.Len(t, feed.Entries, 1)
		assert.Equal(t, "<b>bold</b> text", feed.Entries[0].Summary)
	})
}

func TestParseRSS_RDF(t *testing.T) {
	raw := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns="http://purl.org/rss/1.0/"
         xmlns:dc="http://purl.org/dc/elements/1.1/">
	<channel rdf:about="http://example.com/feed">
		<title>RDF Feed</title>
		<link>http://example.com/</link>
		<description>An RSS 1.0 feed</description>
		<dc:creator>Ann Writer</dc:creator>
	</channel>
	<image rdf:about="http://example.com/logo.png">
		<url>http://example.com/logo.png</url>
		<title>RDF Feed</title>
	</image>
	<item rdf:about="http://example.com/one">
		<title>First</title>
		<link>http://example.com/one</link>
		<dc:date>2003-12-13T18:30:02Z</dc:date>
	</item>
	<item rdf:about="http://example.com/two">
		<title>Second</title>
		<link>http://example.com/two</link>
	</item>
</rdf:RDF>`

	feed, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.False(t, feed.Bozo, feed.BozoException)
	assert.Equal(t, domain.Rss10, feed.Version)

	assert.Equal(t, "RDF Feed", feed.Feed.Title)
	assert.Equal(t, "Ann Writer", feed.Feed.DCCreator)
	assert.Equal(t, "Ann Writer", feed.Feed.Author)
	require.NotNil(t, feed.Feed.Image)
	assert.Equal(t, "http://example.com/logo.png", feed.Feed.Image.URL)

	require.Len(t, feed.Entries, 2)
	assert.Equal(t, "First", feed.Entries[0].Title)
	require.NotNil(t, feed.Entries[0].Published, "dc:date fills published")
	assert.Equal(t, time.Date(2003, 12, 13, 18, 30, 2, 0, time.UTC), *feed.Entries[0].Published)
	assert.Equal(t, "Second", feed.Entries[1].Title)
}

func TestPersonFromText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *domain.Person
	}{
		{"email with name", "a@b.com (Jo Doe)", &domain.Person{Name: "Jo Doe", Email: "a@b.com"}},
		{"bare email", "a@b.com", &domain.Person{Email: "a@b.com"}},
		{"plain name", "Jo Doe", &domain.Person{Name: "Jo Doe"}},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := personFromText(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}
