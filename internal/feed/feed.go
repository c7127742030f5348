// Package feed writes the RSS feed and the sitemap for the generated site.
package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Entry is one syndicated page.
type Entry struct {
	Title       string
	Description string
	Permalink   string
	HTML        string
	Date        time.Time
	Lastmod     time.Time
}

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Content string     `xml:"xmlns:content,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description,omitempty"`
	Content     string `xml:"content:encoded,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// RSS renders the feed for the published posts. Entries keep the caller's
// order; the collection is expected to already be filtered.
func RSS(title, description, baseURL, language string, entries []Entry) ([]byte, error) {
	items := make([]rssItem, 0, len(entries))
	for _, e := range entries {
		link := absolute(baseURL, e.Permalink)
		items = append(items, rssItem{
			Title:       e.Title,
			Link:        link,
			Description: e.Description,
			Content:     e.HTML,
			PubDate:     e.Date.Format(time.RFC1123Z),
			GUID:        link,
		})
	}

	doc := rssXML{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Content: "http://purl.org/rss/1.0/modules/content/",
		Channel: rssChannel{
			Title:       title,
			Link:        baseURL,
			Description: description,
			Language:    language,
			Items:       items,
		},
	}
	return encode(doc)
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap renders sitemap.xml over every rendered page.
func Sitemap(baseURL string, entries []Entry) ([]byte, error) {
	urls := make([]sitemapURL, 0, len(entries))
	for _, e := range entries {
		u := sitemapURL{Loc: absolute(baseURL, e.Permalink)}
		if !e.Lastmod.IsZero() {
			u.LastMod = e.Lastmod.Format("2006-01-02")
		}
		urls = append(urls, u)
	}

	doc := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	return encode(doc)
}

func encode(doc any) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

func absolute(baseURL, permalink string) string {
	return strings.TrimSuffix(baseURL, "/") + permalink
}
