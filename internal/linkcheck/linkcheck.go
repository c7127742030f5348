// Package linkcheck verifies that internal links in a built site resolve to
// files in the output tree. External URLs are out of scope; only references
// this build is responsible for can break this build.
package linkcheck

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Issue is one broken internal reference.
type Issue struct {
	// Page is the HTML file containing the reference, relative to the
	// output directory.
	Page string
	// URL is the broken reference as written.
	URL string
	// Tag is the element that carried it (a, img, link, script).
	Tag string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: <%s> references %s", i.Page, i.Tag, i.URL)
}

// Check walks every HTML file under outputDir and reports internal
// references that do not resolve to a file.
func Check(outputDir string) ([]Issue, error) {
	var issues []Issue

	err := filepath.WalkDir(outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}

		rel, err := filepath.Rel(outputDir, p)
		if err != nil {
			return err
		}

		pageIssues, err := checkFile(outputDir, p, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		issues = append(issues, pageIssues...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func checkFile(outputDir, path, rel string) ([]Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rel, err)
	}

	var issues []Issue
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if url, ok := refAttr(n); ok && isInternal(url) {
				if !resolves(outputDir, rel, url) {
					issues = append(issues, Issue{Page: rel, URL: url, Tag: n.Data})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return issues, nil
}

func refAttr(n *html.Node) (string, bool) {
	var attr string
	switch n.Data {
	case "a", "link":
		attr = "href"
	case "img", "script", "source":
		attr = "src"
	default:
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == attr && a.Val != "" {
			return a.Val, true
		}
	}
	return "", false
}

// isInternal reports whether url is a reference into this site's own output
// (site-absolute or relative, no scheme or host).
func isInternal(url string) bool {
	switch {
	case strings.HasPrefix(url, "//"),
		strings.Contains(url, "://"),
		strings.HasPrefix(url, "mailto:"),
		strings.HasPrefix(url, "tel:"),
		strings.HasPrefix(url, "#"),
		strings.HasPrefix(url, "data:"):
		return false
	}
	return true
}

// resolves checks that url maps to an existing file under outputDir.
// Directory URLs resolve through their index.html.
func resolves(outputDir, fromPage, url string) bool {
	// Drop query and fragment.
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	if url == "" {
		return true
	}

	var target string
	if strings.HasPrefix(url, "/") {
		target = strings.TrimPrefix(url, "/")
	} else {
		target = path.Join(path.Dir(fromPage), url)
	}

	candidates := []string{target}
	if target == "" || strings.HasSuffix(url, "/") {
		candidates = []string{path.Join(target, "index.html")}
	}

	for _, c := range candidates {
		full := filepath.Join(outputDir, filepath.FromSlash(c))
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if _, err := os.Stat(filepath.Join(full, "index.html")); err == nil {
				return true
			}
			continue
		}
		return true
	}
	return false
}
