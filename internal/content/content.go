// Package content discovers Markdown documents, parses their front matter,
// and derives the published-post collection.
package content

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorenvanhee/joren.co/internal/frontmatter"
)

// postGlob matches the source paths that belong to the blog collection,
// relative to the content directory.
const postGlob = "blog/*.md"

// Document is a single Markdown source file.
type Document struct {
	// SourcePath is the absolute path of the source file.
	SourcePath string
	// RelPath is the slash-separated path relative to the content directory.
	RelPath string
	// Meta is the typed front matter.
	Meta frontmatter.Meta
	// Fields is the raw front matter for template access beyond Meta.
	Fields map[string]any
	// Body is the Markdown body with front matter removed.
	Body []byte
	// Date is the publication date: front matter date, or the file
	// modification time when absent.
	Date time.Time
	// Lastmod is the last content change; populated from git history by the
	// build, file mtime otherwise.
	Lastmod time.Time
	// Slug is the URL-safe name derived from the file name.
	Slug string
	// Permalink is the site-absolute URL path ("/blog/two-cats/").
	Permalink string
	// IsPost reports whether the document belongs to the blog collection glob.
	IsPost bool
}

// Load walks dir and parses every Markdown file into a Document.
//
// The returned slice follows filepath.WalkDir order (path-lexical), which is
// the only ordering the collection guarantees. Front matter that fails to
// parse aborts the load: a malformed post must break the build, not ship with
// leaked metadata.
func Load(dir string) ([]*Document, error) {
	var docs []*Document

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}

		doc, err := loadFile(dir, p)
		if err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Posts returns the published-post collection: documents under the blog glob
// whose front matter does not flag them hidden. Order is preserved from Load.
func Posts(docs []*Document) []*Document {
	var posts []*Document
	for _, doc := range docs {
		if doc.IsPost && !doc.Meta.Hidden {
			posts = append(posts, doc)
		}
	}
	return posts
}

// Published filters posts whose date is not after now. Future-dated posts
// stay out of the built site until a rebuild after their date.
func Published(posts []*Document, now time.Time) []*Document {
	var out []*Document
	for _, p := range posts {
		if !p.Date.After(now) {
			out = append(out, p)
		}
	}
	return out
}

func loadFile(root, p string) (*Document, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}

	meta, body, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, _, err := frontmatter.ParseMap(raw)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(root, p)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	isPost, err := path.Match(postGlob, rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}

	date, err := meta.Time()
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = info.ModTime().UTC()
	}

	slug := Slugify(strings.TrimSuffix(path.Base(rel), path.Ext(rel)))

	doc := &Document{
		SourcePath: p,
		RelPath:    rel,
		Meta:       meta,
		Fields:     fields,
		Body:       body,
		Date:       date,
		Lastmod:    info.ModTime().UTC(),
		Slug:       slug,
		Permalink:  permalink(rel, slug),
		IsPost:     isPost,
	}
	return doc, nil
}

// permalink maps a source path to its URL path. index.md maps to the
// directory itself; everything else gets a trailing-slash directory URL.
func permalink(rel, slug string) string {
	dir := path.Dir(rel)
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))

	if strings.EqualFold(base, "index") {
		if dir == "." {
			return "/"
		}
		return "/" + dir + "/"
	}
	if dir == "." {
		return "/" + slug + "/"
	}
	return "/" + dir + "/" + slug + "/"
}

// OutputPath maps a permalink to a file path under the output directory
// ("/blog/two-cats/" -> "blog/two-cats/index.html").
func (d *Document) OutputPath() string {
	trimmed := strings.Trim(d.Permalink, "/")
	if trimmed == "" {
		return "index.html"
	}
	return path.Join(trimmed, "index.html")
}

// Title returns the front matter title, falling back to a title-cased slug.
func (d *Document) Title() string {
	if d.Meta.Title != "" {
		return d.Meta.Title
	}
	return TitleCase(strings.ReplaceAll(d.Slug, "-", " "))
}
