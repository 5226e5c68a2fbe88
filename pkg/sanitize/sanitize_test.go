package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedparser/pkg/domain"
)

func TestSanitizer_Clean(t *testing.T) {
	s := New()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"script stripped", `<p>hi</p><script>alert(1)</script>`, `<p>hi</p>`},
		{"event handler stripped", `<a href="http://example.com" onclick="evil()">x</a>`, `<a href="http://example.com" rel="nofollow">x</a>`},
		{"formatting kept", `<b>bold</b> and <i>italic</i>`, `<b>bold</b> and <i>italic</i>`},
		{"plain text untouched", `just words`, `just words`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Clean(tt.input))
		})
	}
}

func TestSanitizer_Strict(t *testing.T) {
	s := NewStrict()
	assert.Equal(t, "bold text", s.Clean(`<b>bold</b> text`))
}

func TestSanitizer_Feed(t *testing.T) {
	pf := domain.NewParsedFeed()
	pf.Feed.Subtitle = `About<script>x()</script>`
	pf.Feed.SubtitleDetail = &domain.TextConstruct{
		Value:       `About<script>x()</script>`,
		ContentType: domain.TextHTML,
	}

	entry := domain.NewEntry()
	entry.Title = `plain & simple`
	entry.TitleDetail = &domain.TextConstruct{Value: `plain & simple`, ContentType: domain.TextPlain}
	entry.Summary = `<img src=x onerror=alert(1)>summary`
	entry.SummaryDetail = &domain.TextConstruct{
		Value:       `<img src=x onerror=alert(1)>summary`,
		ContentType: domain.TextHTML,
	}
	entry.Content = []domain.Content{
		{Value: `<p>ok</p><iframe src="http://evil"></iframe>`, ContentType: "text/html"},
		{Value: `<not html>`, ContentType: "text/plain"},
	}
	pf.Entries = append(pf.Entries, entry)

	New().Feed(pf)

	assert.Equal(t, "About", pf.Feed.Subtitle)
	assert.Equal(t, "About", pf.Feed.SubtitleDetail.Value)

	e := pf.Entries[0]
	assert.Equal(t, "plain & simple", e.Title, "plain text constructs stay as-is")
	assert.NotContains(t, e.Summary, "onerror")
	assert.Contains(t, e.Summary, "summary")
	assert.Equal(t, "<p>ok</p>", e.Content[0].Value)
	assert.Equal(t, `<not html>`, e.Content[1].Value, "non-html content untouched")

	require.NotNil(t, e.SummaryDetail)
	assert.Equal(t, e.Summary, e.SummaryDetail.Value)
}
