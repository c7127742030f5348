package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRSS_ContainsEntriesWithAbsoluteLinks(t *testing.T) {
	entries := []Entry{
		{
			Title:     "Two cats",
			Permalink: "/blog/two-cats/",
			Date:      time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	out, err := RSS("joren.co", "A blog", "https://joren.co", "en", entries)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, "<?xml")
	require.Contains(t, s, "<title>Two cats</title>")
	require.Contains(t, s, "<link>https://joren.co/blog/two-cats/</link>")
	require.Contains(t, s, "Fri, 02 Jun 2023")
}

func TestRSS_CarriesFullPostBody(t *testing.T) {
	entries := []Entry{
		{
			Title:       "Two cats",
			Description: "A short summary",
			Permalink:   "/blog/two-cats/",
			HTML:        "<p>Hello <em>reader</em></p>",
			Date:        time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	out, err := RSS("joren.co", "A blog", "https://joren.co", "en", entries)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, `xmlns:content="http://purl.org/rss/1.0/modules/content/"`)
	require.Contains(t, s, "<content:encoded>&lt;p&gt;Hello &lt;em&gt;reader&lt;/em&gt;&lt;/p&gt;</content:encoded>")
	require.Contains(t, s, "<description>A short summary</description>")
}

func TestRSS_EmptyCollection_StillValid(t *testing.T) {
	out, err := RSS("joren.co", "A blog", "https://joren.co", "en", nil)
	require.NoError(t, err)
	require.Contains(t, string(out), "<channel>")
	require.NotContains(t, string(out), "<item>")
}

func TestSitemap_IncludesLastmodWhenKnown(t *testing.T) {
	entries := []Entry{
		{Permalink: "/", Lastmod: time.Date(2023, 7, 1, 10, 0, 0, 0, time.UTC)},
		{Permalink: "/blog/two-cats/"},
	}

	out, err := Sitemap("https://joren.co/", entries)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, "<loc>https://joren.co/</loc>")
	require.Contains(t, s, "<lastmod>2023-07-01</lastmod>")
	require.Contains(t, s, "<loc>https://joren.co/blog/two-cats/</loc>")
}
