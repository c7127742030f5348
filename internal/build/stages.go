package build

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jorenvanhee/joren.co/internal/content"
	"github.com/jorenvanhee/joren.co/internal/css"
	"github.com/jorenvanhee/joren.co/internal/feed"
	"github.com/jorenvanhee/joren.co/internal/gitinfo"
	"github.com/jorenvanhee/joren.co/internal/layouts"
)

func errMissingAttr(shortcode, attr string) error {
	return fmt.Errorf("shortcode %q: missing required attribute %q", shortcode, attr)
}

// stagePrepareOutput recreates the output directory from scratch so stale
// files from earlier builds never leak into the published site.
func stagePrepareOutput(_ context.Context, st *State) error {
	out := st.Config.OutputDir()
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("clean output dir: %w", err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// stageLoadContent loads every Markdown document, overlays git commit times
// as Lastmod where history exists, and derives the published-post collection.
func stageLoadContent(_ context.Context, st *State) error {
	docs, err := content.Load(st.Config.ContentDir())
	if err != nil {
		return err
	}

	info, err := gitinfo.Open(st.Config.BaseDir)
	if err != nil {
		slog.Warn("Reading git history failed; falling back to file mtimes", "error", err)
	}
	st.git = info
	for _, doc := range docs {
		if t, ok := info.Lastmod(doc.SourcePath); ok {
			doc.Lastmod = t
		}
	}

	posts := content.Published(content.Posts(docs), st.Now)
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})

	st.Docs = docs
	st.Posts = posts
	slog.Debug("Content loaded", "documents", len(docs), "published_posts", len(posts))
	return nil
}

// stageRenderPages renders every document through Markdown and its layout
// chain and writes the resulting HTML files.
func stageRenderPages(ctx context.Context, st *State) error {
	site := siteData(st)
	postPages := make([]layouts.Page, len(st.Posts))
	for i, p := range st.Posts {
		postPages[i] = pageData(p)
	}

	for _, doc := range st.Docs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		html, err := st.md.Render(doc.Body)
		if err != nil {
			return fmt.Errorf("render %s: %w", doc.RelPath, err)
		}
		st.html[doc] = html

		data := layouts.Data{
			Site:    site,
			Page:    pageData(doc),
			Posts:   postPages,
			Content: template.HTML(html),
		}
		rendered, err := st.layout.Render(layoutAlias(doc), data)
		if err != nil {
			return fmt.Errorf("render %s: %w", doc.RelPath, err)
		}

		outPath := filepath.Join(st.Config.OutputDir(), filepath.FromSlash(doc.OutputPath()))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(outPath, rendered, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", doc.OutputPath(), err)
		}
		st.Report.PagesRendered++
	}
	return nil
}

// stageCompileCSS runs the stylesheet pipeline over the entry file and
// writes the compiled sheet into the output tree.
func stageCompileCSS(_ context.Context, st *State) error {
	cfg := st.Config
	entry := filepath.Join(cfg.BaseDir, filepath.FromSlash(cfg.CSS.Entry))
	input, err := os.ReadFile(entry)
	if err != nil {
		return fmt.Errorf("read css entry: %w", err)
	}

	globs := make([]string, len(cfg.CSS.ContentGlobs))
	for i, g := range cfg.CSS.ContentGlobs {
		globs[i] = filepath.Join(cfg.BaseDir, filepath.FromSlash(g))
	}

	pipeline := css.NewPipeline(css.Options{
		BaseDir:      filepath.Dir(entry),
		Theme:        cfg.Theme,
		ContentGlobs: globs,
		Minify:       cfg.Production(),
	})
	out, err := pipeline.Run(input)
	if err != nil {
		return err
	}

	outPath := filepath.Join(cfg.OutputDir(), filepath.FromSlash(cfg.CSS.Output))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, out, 0o644)
}

// stageCopyStatic mirrors the static directory into the output root. A
// missing static directory is not an error.
func stageCopyStatic(_ context.Context, st *State) error {
	src := st.Config.StaticDir()
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	return copyDir(src, st.Config.OutputDir())
}

// stageWriteFeeds writes the RSS feed (published posts) and the sitemap
// (every visible page).
func stageWriteFeeds(_ context.Context, st *State) error {
	cfg := st.Config

	rssEntries := make([]feed.Entry, len(st.Posts))
	for i, p := range st.Posts {
		rssEntries[i] = feed.Entry{
			Title:       p.Title(),
			Description: p.Meta.Description,
			Permalink:   p.Permalink,
			HTML:        string(st.html[p]),
			Date:        p.Date,
			Lastmod:     p.Lastmod,
		}
	}
	rss, err := feed.RSS(cfg.Site.Title, cfg.Site.Description, cfg.Site.BaseURL, cfg.Site.Language, rssEntries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cfg.OutputDir(), "feed.xml"), rss, 0o644); err != nil {
		return err
	}

	var siteEntries []feed.Entry
	for _, doc := range st.Docs {
		if doc.Meta.Hidden || (doc.IsPost && doc.Date.After(st.Now)) {
			continue
		}
		siteEntries = append(siteEntries, feed.Entry{
			Permalink: doc.Permalink,
			Lastmod:   doc.Lastmod,
		})
	}
	sitemap, err := feed.Sitemap(cfg.Site.BaseURL, siteEntries)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cfg.OutputDir(), "sitemap.xml"), sitemap, 0o644)
}

// layoutAlias picks the layout for a document: its front matter choice,
// otherwise post for blog entries and default for everything else.
func layoutAlias(doc *content.Document) string {
	if doc.Meta.Layout != "" {
		return doc.Meta.Layout
	}
	if doc.IsPost {
		return "post"
	}
	return "default"
}

func siteData(st *State) layouts.Site {
	return layouts.Site{
		Title:       st.Config.Site.Title,
		Description: st.Config.Site.Description,
		Author:      st.Config.Site.Author,
		BaseURL:     st.Config.Site.BaseURL,
		Language:    st.Config.Site.Language,
		Env:         st.Config.Env,
	}
}

func pageData(doc *content.Document) layouts.Page {
	return layouts.Page{
		Title:       doc.Title(),
		Description: doc.Meta.Description,
		Permalink:   doc.Permalink,
		Date:        doc.Date,
		Lastmod:     doc.Lastmod,
		Tags:        doc.Meta.Tags,
		Fields:      doc.Fields,
	}
}
